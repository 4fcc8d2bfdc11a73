package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type CompleteResult struct {
	TaskID       string
	XPAwarded    int
	LevelBefore  int
	LevelAfter   int
	LevelUp      bool
	PlanLimited  bool
	AllDoneBonus bool
	Unlocked     []AchievementState
}

// CompleteTask records task as completed and runs the resulting XP chain:
// the base reward, the all-done bonus, then achievement unlocks until no new
// achievement is satisfied. Only invalid input is reported as an error.
func (s *Session) CompleteTask(_ context.Context, task TaskRecord) (*CompleteResult, error) {
	task.ID = strings.TrimSpace(task.ID)
	if task.ID == "" {
		return nil, errors.New("task id is required")
	}
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	var eff effects

	s.mu.Lock()
	if prev, ok := s.history.Get(task.ID); ok && prev.Completed {
		s.mu.Unlock()
		return nil, fmt.Errorf("task %s is already completed", task.ID)
	}
	now := s.clock.Now()
	levelBefore := s.stats.CurrentLevel

	rec := s.history.Complete(task, now)
	eff.tasks = append(eff.tasks, rec)
	s.refreshDerived(now)

	base := s.rewards.TaskCompletion
	if task.Priority {
		base += s.rewards.PriorityBonus
	}
	first := s.applyXP(base, ReasonTaskCompleted, task.ID, false, now, &eff)
	res := &CompleteResult{
		TaskID:      task.ID,
		XPAwarded:   first.Applied,
		LevelBefore: levelBefore,
		LevelUp:     first.LevelUp,
		PlanLimited: first.PlanLimited,
	}

	// Evaluated against the post-append history.
	if today := s.history.Today(now); len(today) > 1 && allCompleted(today) && s.rewards.AllTasksDone > 0 {
		bonus := s.applyXP(s.rewards.AllTasksDone, ReasonAllTasksDone, task.ID, false, now, &eff)
		res.XPAwarded += bonus.Applied
		res.AllDoneBonus = true
		res.LevelUp = res.LevelUp || bonus.LevelUp
		res.PlanLimited = res.PlanLimited || bonus.PlanLimited
	}
	s.refreshDerived(now)

	res.Unlocked = s.drainAchievements(now, &eff)
	for _, a := range res.Unlocked {
		res.XPAwarded += a.XPReward
	}
	res.LevelAfter = s.stats.CurrentLevel
	res.LevelUp = res.LevelUp || res.LevelAfter > levelBefore && !s.stats.PlanCapped
	s.mu.Unlock()

	s.flush(&eff)
	return res, nil
}

func allCompleted(tasks []TaskRecord) bool {
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// drainAchievements unlocks every satisfied achievement and grants its reward,
// repeating until a round unlocks nothing. Each achievement unlocks at most
// once, so at most len(catalog) rounds make progress. Callers hold mu.
func (s *Session) drainAchievements(now time.Time, eff *effects) []AchievementState {
	var unlocked []AchievementState
	for round := 0; round <= len(s.stats.Achievements); round++ {
		progressed := false
		for i := range s.stats.Achievements {
			a := &s.stats.Achievements[i]
			if !Satisfied(*a, s.history.Records(), s.stats, now) {
				continue
			}
			at := now
			a.Unlocked = true
			a.UnlockedAt = &at
			progressed = true

			state := *a
			unlocked = append(unlocked, state)
			eff.unlocks = append(eff.unlocks, state)
			// A level-up caused by the reward is announced before the unlock.
			s.applyXP(a.XPReward, ReasonAchievement+": "+a.Name, "", true, now, eff)
			eff.notes = append(eff.notes, achievementNotification(state, now))
			s.refreshDerived(now)
		}
		if !progressed {
			break
		}
	}
	return unlocked
}
