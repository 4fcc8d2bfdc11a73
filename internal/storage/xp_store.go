package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"levelup/internal/engine"
)

// ErrInvalidUser is returned for an empty user id.
var ErrInvalidUser = errors.New("user id is required")

// XPStore is the authoritative per-user XP store. It implements
// engine.Persistence.
type XPStore struct {
	db     *sql.DB
	levels *engine.LevelTable
	now    func() time.Time
}

func NewXPStore(db *sql.DB, levels *engine.LevelTable) *XPStore {
	if levels == nil {
		levels = engine.DefaultLevels
	}
	return &XPStore{db: db, levels: levels, now: func() time.Time { return time.Now().UTC() }}
}

func normalizeUser(userID string) (string, error) {
	u := strings.TrimSpace(userID)
	if u == "" {
		return "", ErrInvalidUser
	}
	return u, nil
}

// AddXP applies a delta, saturating at zero, and returns the new total.
func (s *XPStore) AddXP(ctx context.Context, userID string, gain engine.XPGain) (int, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return 0, err
	}
	var total int
	err = WithTx(ctx, s.db, func(tx DBTX) error {
		players := NewPlayerRepo(tx)
		p, err := players.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		total = p.XP + gain.XPGain
		if total < 0 {
			total = 0
		}
		if err := players.UpdateXP(ctx, userID, total, s.levels.LevelFor(total).Level); err != nil {
			return err
		}
		var taskID *string
		if gain.TaskID != "" {
			taskID = &gain.TaskID
		}
		_, err = NewXPEventRepo(tx).Insert(ctx, XPEvent{
			UserID:    userID,
			Requested: gain.XPGain,
			Applied:   total - p.XP,
			Reason:    gain.Reason,
			TaskID:    taskID,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FetchXP returns the stored snapshot; unknown users start at zero.
func (s *XPStore) FetchXP(ctx context.Context, userID string) (engine.XPSnapshot, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	p, err := NewPlayerRepo(s.db).Get(ctx, userID)
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	if p == nil {
		return engine.XPSnapshot{XP: 0, Level: 1}, nil
	}
	return engine.XPSnapshot{XP: p.XP, Level: p.Level}, nil
}

// SetXP overwrites a user's total out of band, as an administrator would.
func (s *XPStore) SetXP(ctx context.Context, userID string, xp int) (engine.XPSnapshot, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	if xp < 0 {
		return engine.XPSnapshot{}, fmt.Errorf("xp must be non-negative, got %d", xp)
	}
	level := s.levels.LevelFor(xp).Level
	err = WithTx(ctx, s.db, func(tx DBTX) error {
		players := NewPlayerRepo(tx)
		p, err := players.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := players.UpdateXP(ctx, userID, xp, level); err != nil {
			return err
		}
		_, err = NewXPEventRepo(tx).Insert(ctx, XPEvent{
			UserID:    userID,
			Requested: xp - p.XP,
			Applied:   xp - p.XP,
			Reason:    ReasonAdminEdit,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	return engine.XPSnapshot{XP: xp, Level: level}, nil
}

// SetPlan records a user's subscription plan.
func (s *XPStore) SetPlan(ctx context.Context, userID string, plan engine.Plan) error {
	userID, err := normalizeUser(userID)
	if err != nil {
		return err
	}
	if !plan.IsValid() {
		return fmt.Errorf("invalid plan: %q", plan)
	}
	return WithTx(ctx, s.db, func(tx DBTX) error {
		players := NewPlayerRepo(tx)
		if _, err := players.GetOrCreate(ctx, userID); err != nil {
			return err
		}
		return players.UpdatePlan(ctx, userID, string(plan))
	})
}

// FetchPlan returns userID's subscription. Unknown users are on the free plan.
func (s *XPStore) FetchPlan(ctx context.Context, userID string) (engine.SubscriptionPlan, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return engine.SubscriptionPlan{}, err
	}
	p, err := NewPlayerRepo(s.db).Get(ctx, userID)
	if err != nil {
		return engine.SubscriptionPlan{}, err
	}
	if p == nil {
		return engine.FreePlan(), nil
	}
	plan, err := engine.ParsePlan(p.Plan)
	if err != nil {
		return engine.SubscriptionPlan{}, err
	}
	return engine.SubscriptionFor(plan), nil
}

// PlanProvider binds FetchPlan to one user.
func (s *XPStore) PlanProvider(userID string) engine.PlanProvider {
	return engine.PlanFunc(func(ctx context.Context) (engine.SubscriptionPlan, error) {
		return s.FetchPlan(ctx, userID)
	})
}
