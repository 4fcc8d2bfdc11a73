package engine

import "time"

// TaskRecord is a task as seen by the ledger: only timestamps and flags matter.
type TaskRecord struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Priority    bool       `json:"priority"`
}

// AchievementState is an achievement definition plus its unlock status.
type AchievementState struct {
	AchievementDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// XPEvent is one applied entry in the session's XP ledger.
type XPEvent struct {
	Requested int       `json:"requested"`
	Applied   int       `json:"applied"`
	Reason    string    `json:"reason"`
	TaskID    string    `json:"task_id,omitempty"`
	At        time.Time `json:"at"`
}

// ProductivityStats is the reconciled per-user view.
//
// The level fields are recomputed from TotalXP on every change; CurrentLevel may
// sit below the raw table level when the plan gate clamps it.
type ProductivityStats struct {
	TotalXP             int                `json:"total_xp"`
	CurrentLevel        int                `json:"current_level"`
	LevelName           string             `json:"level_name"`
	XPInCurrentLevel    int                `json:"xp_in_current_level"`
	XPToNextLevel       int                `json:"xp_to_next_level"`
	TotalTasksCompleted int                `json:"total_tasks_completed"`
	ConsecutiveDays     int                `json:"consecutive_days"`
	Achievements        []AchievementState `json:"achievements"`
	WeeklyStats         WeeklyStats        `json:"weekly_stats"`

	// PreviousLevel is the displayed level before the most recent level-up.
	PreviousLevel  int  `json:"previous_level"`
	LevelUpPending bool `json:"level_up_pending"`
	PlanCapped     bool `json:"plan_capped"`
}

// XPGain is the payload of a persistence write.
type XPGain struct {
	XPGain int    `json:"xpGain"`
	Reason string `json:"reason"`
	TaskID string `json:"taskId,omitempty"`
}

// XPSnapshot is the authoritative server view of a user's progress.
type XPSnapshot struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

func cloneStats(s ProductivityStats) ProductivityStats {
	out := s
	out.Achievements = make([]AchievementState, len(s.Achievements))
	copy(out.Achievements, s.Achievements)
	out.WeeklyStats.Days = make([]DayStats, len(s.WeeklyStats.Days))
	copy(out.WeeklyStats.Days, s.WeeklyStats.Days)
	return out
}
