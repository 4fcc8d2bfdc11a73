package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type CreateTaskInput struct {
	ID       string
	Text     string
	Priority bool
}

func normalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", errors.New("task text is required")
	}
	return t, nil
}

// NewTaskID returns a fresh task identifier.
func NewTaskID() string {
	return uuid.New().String()
}

// CreateTask records a pending task in the history. Creation does not grant XP
// but can satisfy creation-count achievements.
func (s *Session) CreateTask(_ context.Context, in CreateTaskInput) (TaskRecord, []AchievementState, error) {
	text, err := normalizeText(in.Text)
	if err != nil {
		return TaskRecord{}, nil, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = NewTaskID()
	}
	if s.isClosed() {
		return TaskRecord{}, nil, ErrSessionClosed
	}
	var eff effects

	s.mu.Lock()
	if _, ok := s.history.Get(id); ok {
		s.mu.Unlock()
		return TaskRecord{}, nil, errors.New("task " + id + " already exists")
	}
	now := s.clock.Now()
	rec := TaskRecord{ID: id, Text: text, CreatedAt: now, Priority: in.Priority}
	s.history.Add(rec)
	eff.tasks = append(eff.tasks, rec)
	s.refreshDerived(now)
	unlocked := s.drainAchievements(now, &eff)
	s.mu.Unlock()

	s.flush(&eff)
	return rec, unlocked, nil
}

// Task looks up a task in the history.
func (s *Session) Task(id string) (TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.history.Get(id)
	if !ok {
		return TaskRecord{}, ErrUnknownTask
	}
	return t, nil
}
