package engine

import (
	"context"
	"time"
)

// ReconcileResult reports what a pull sync did.
type ReconcileResult struct {
	Fetched  bool
	Applied  bool
	ServerXP int
	LocalXP  int
	LevelUp  bool
	Err      error
}

// Reconcile refreshes the cached plan, then pulls the authoritative XP and
// merges it. Fetch failures are logged and reported in the result; local
// state is left untouched.
func (s *Session) Reconcile(ctx context.Context) ReconcileResult {
	if err := s.RefreshPlan(ctx); err != nil {
		s.logger.Printf("Warning: %v; keeping cached plan for %s", err, s.userID)
	}
	if s.persist == nil {
		return ReconcileResult{}
	}
	snap, err := s.persist.FetchXP(ctx, s.userID)
	if err != nil {
		s.logger.Printf("Warning: reconcile for %s failed: %v", s.userID, err)
		s.mu.Lock()
		s.lastSyncErr = err
		s.mu.Unlock()
		return ReconcileResult{Err: err}
	}
	return s.Merge(snap)
}

// Merge applies a server snapshot under the anti-regression rule: the server
// value is adopted only when it is at least the local total.
func (s *Session) Merge(snap XPSnapshot) ReconcileResult {
	var eff effects

	s.mu.Lock()
	res := s.merge(snap, &eff)
	s.lastSyncAt = s.clock.Now()
	s.lastSyncErr = nil
	s.mu.Unlock()

	s.flush(&eff)
	return res
}

// merge is Merge without flushing. Callers hold mu.
func (s *Session) merge(snap XPSnapshot, eff *effects) ReconcileResult {
	res := ReconcileResult{Fetched: true, ServerXP: snap.XP, LocalXP: s.stats.TotalXP}
	if snap.XP < s.stats.TotalXP {
		return res
	}
	now := s.clock.Now()
	oldXP := s.stats.TotalXP
	s.stats.TotalXP = snap.XP
	res.Applied = true

	if diff := snap.XP - oldXP; diff > 0 {
		s.ledger = append(s.ledger, XPEvent{Requested: diff, Applied: diff, Reason: ReasonServerSync, At: now})
	}
	note, up, _ := s.settle(oldXP, now)
	res.LevelUp = up
	if note != nil {
		eff.notes = append(eff.notes, *note)
	}
	s.refreshDerived(now)
	if snap.XP > oldXP {
		s.drainAchievements(now, eff)
	}
	return res
}

// LastSync reports when the last successful merge happened and the most
// recent fetch error, if any.
func (s *Session) LastSync() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncAt, s.lastSyncErr
}
