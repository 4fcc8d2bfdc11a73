package storage

import (
	"context"
	"database/sql"
	"time"

	"levelup/internal/engine"
)

// Journal caches a user's task history, unlocks and ledger so a session can
// be rebuilt without the server. It implements engine.Journal.
type Journal struct {
	db           *sql.DB
	tasks        *TaskRepo
	achievements *AchievementRepo
	events       *XPEventRepo
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{
		db:           db,
		tasks:        NewTaskRepo(db),
		achievements: NewAchievementRepo(db),
		events:       NewXPEventRepo(db),
	}
}

func (j *Journal) SaveTask(ctx context.Context, userID string, t engine.TaskRecord) error {
	return j.tasks.Upsert(ctx, userID, t)
}

func (j *Journal) SaveUnlock(ctx context.Context, userID string, achievementID string, at time.Time) error {
	return j.achievements.MarkUnlocked(ctx, userID, achievementID, at)
}

// ledgerWindow is how much ledger history a seed carries; weekly stats only
// look back seven days.
const ledgerWindow = 8 * 24 * time.Hour

// CacheState stores the session's last view of userID: its total and, when
// known, its plan. The authoritative store is not touched.
func (j *Journal) CacheState(ctx context.Context, userID string, snap engine.XPSnapshot, plan *engine.SubscriptionPlan) error {
	c := CachedState{UserID: userID, XP: snap.XP, Level: snap.Level}
	if plan != nil {
		c.Plan = string(plan.Plan)
		c.MaxLevel = plan.MaxLevel
	}
	return NewCacheRepo(j.db).Put(ctx, c)
}

// LoadSeed rebuilds the cached state for userID. The total and plan come from
// the session cache; the reconcile at open corrects them against the store.
func (j *Journal) LoadSeed(ctx context.Context, userID string, now time.Time) (engine.Seed, error) {
	var seed engine.Seed
	cached, err := NewCacheRepo(j.db).Get(ctx, userID)
	if err != nil {
		return engine.Seed{}, err
	}
	if cached != nil {
		seed.TotalXP = cached.XP
		if p := engine.Plan(cached.Plan); p.IsValid() && cached.MaxLevel >= 1 {
			seed.Plan = &engine.SubscriptionPlan{Plan: p, MaxLevel: cached.MaxLevel}
		}
	}
	tasks, err := j.tasks.ListByUser(ctx, userID)
	if err != nil {
		return engine.Seed{}, err
	}
	unlocked, err := j.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return engine.Seed{}, err
	}
	rows, err := j.events.ListSince(ctx, userID, now.Add(-ledgerWindow).UTC())
	if err != nil {
		return engine.Seed{}, err
	}
	ledger := make([]engine.XPEvent, 0, len(rows))
	for _, r := range rows {
		e := engine.XPEvent{Requested: r.Requested, Applied: r.Applied, Reason: r.Reason, At: r.CreatedAt}
		if r.TaskID != nil {
			e.TaskID = *r.TaskID
		}
		ledger = append(ledger, e)
	}
	seed.History = tasks
	seed.Unlocked = unlocked
	seed.Ledger = ledger
	return seed, nil
}
