package storage

import "time"

type Player struct {
	UserID    string
	XP        int
	Level     int
	Plan      string
	UpdatedAt time.Time
}

type XPEvent struct {
	ID        int64
	UserID    string
	Requested int
	Applied   int
	Reason    string
	TaskID    *string
	CreatedAt time.Time
}

// CachedState is a session_cache row. Plan is empty when the session never
// read a plan.
type CachedState struct {
	UserID    string
	XP        int
	Level     int
	Plan      string
	MaxLevel  int
	UpdatedAt time.Time
}

// ReasonAdminEdit marks ledger rows written by an out-of-band admin edit.
const ReasonAdminEdit = "admin"
