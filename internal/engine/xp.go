package engine

import (
	"context"
	"time"
)

// XPResult describes one applied XP change.
type XPResult struct {
	Requested   int
	Applied     int
	TotalXP     int
	LevelBefore int
	LevelAfter  int
	LevelUp     bool
	PlanLimited bool
}

// AddXP applies a signed XP delta optimistically. Local state and the
// notification are settled before the persistence call is issued, and
// persistence failures never surface here.
func (s *Session) AddXP(_ context.Context, amount int, reason string, taskID string) XPResult {
	var eff effects

	s.mu.Lock()
	now := s.clock.Now()
	res := s.applyXP(amount, reason, taskID, false, now, &eff)
	s.refreshDerived(now)
	s.drainAchievements(now, &eff)
	s.mu.Unlock()

	s.flush(&eff)
	return res
}

// applyXP is the single ledger mutation. quiet suppresses the plain delta
// notification; level-up and plan-limit notifications are always emitted.
// Callers hold mu.
func (s *Session) applyXP(amount int, reason, taskID string, quiet bool, now time.Time, eff *effects) XPResult {
	oldXP := s.stats.TotalXP
	newXP := oldXP + amount
	if newXP < 0 {
		newXP = 0
	}
	s.stats.TotalXP = newXP

	res := XPResult{
		Requested:   amount,
		Applied:     newXP - oldXP,
		TotalXP:     newXP,
		LevelBefore: s.stats.CurrentLevel,
	}
	s.ledger = append(s.ledger, XPEvent{
		Requested: amount,
		Applied:   res.Applied,
		Reason:    reason,
		TaskID:    taskID,
		At:        now,
	})

	note, up, limited := s.settle(oldXP, now)
	res.LevelAfter = s.stats.CurrentLevel
	res.LevelUp = up
	res.PlanLimited = limited
	switch {
	case note != nil:
		eff.notes = append(eff.notes, *note)
	case !quiet:
		eff.notes = append(eff.notes, xpDeltaNotification(res.Applied, reason, now))
	}

	eff.gains = append(eff.gains, XPGain{XPGain: amount, Reason: reason, TaskID: taskID})
	return res
}

// settle recomputes the displayed level after TotalXP moved from oldXP and
// classifies the change. It returns a level-up or plan-limit notification, or
// nil when the displayed level did not rise. Callers hold mu.
func (s *Session) settle(oldXP int, now time.Time) (note *Notification, levelUp, planLimited bool) {
	prevShown := s.stats.CurrentLevel
	prevRaw := s.levels.LevelFor(oldXP).Level
	g := applyGate(s.levels, s.stats.TotalXP, s.plan)
	s.setLevel(g)

	switch {
	case g.Capped && g.RawLevel > prevRaw && g.RawLevel > prevShown:
		if g.Level > prevShown {
			s.stats.PreviousLevel = prevShown
		}
		n := planLimitNotification(g.LevelInfo, s.plan, now)
		return &n, false, true
	case !g.Capped && g.Level > prevShown:
		s.stats.PreviousLevel = prevShown
		s.stats.LevelUpPending = true
		n := levelUpNotification(g.LevelInfo, LevelUpMessage(g.Level, s.rng), now)
		return &n, true, false
	default:
		return nil, false, false
	}
}

// ApplyDailyPenalty deducts the daily penalty when nothing was completed on
// day. Each calendar day is penalized at most once per session.
func (s *Session) ApplyDailyPenalty(_ context.Context, day time.Time) (XPResult, bool) {
	if s.isClosed() {
		return XPResult{}, false
	}
	var eff effects

	s.mu.Lock()
	key := day.Format("2006-01-02")
	if s.penalized[key] || s.history.CompletedOn(day) > 0 || s.rewards.DailyPenalty <= 0 {
		s.mu.Unlock()
		return XPResult{}, false
	}
	s.penalized[key] = true
	now := s.clock.Now()
	res := s.applyXP(-s.rewards.DailyPenalty, ReasonDailyPenalty, "", false, now, &eff)
	s.refreshDerived(now)
	s.mu.Unlock()

	s.flush(&eff)
	return res, true
}
