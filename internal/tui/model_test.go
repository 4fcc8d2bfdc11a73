package tui

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"levelup/internal/engine"
)

func newModel(t *testing.T, seed engine.Seed) boardModel {
	t.Helper()
	ctx := context.Background()
	s := engine.NewSession(ctx, engine.Options{
		UserID: "ana",
		Plans:  engine.StaticPlan(engine.SubscriptionFor(engine.PlanTier2)),
		Logger: log.New(io.Discard, "", 0),
	}, seed)
	t.Cleanup(func() { _ = s.Close() })
	return newBoardModel(ctx, s)
}

func step(m boardModel, msg tea.Msg) (boardModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(boardModel), cmd
}

func TestPendingTasksOrdersPriorityFirst(t *testing.T) {
	now := time.Now()
	done := now
	got := pendingTasks([]engine.TaskRecord{
		{ID: "a", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "b", CreatedAt: now.Add(-2 * time.Hour), Priority: true},
		{ID: "c", CreatedAt: now.Add(-time.Hour), Completed: true, CompletedAt: &done},
		{ID: "d", CreatedAt: now.Add(-4 * time.Hour), Priority: true},
	})
	var ids []string
	for _, t := range got {
		ids = append(ids, t.ID)
	}
	if strings.Join(ids, ",") != "d,b,a" {
		t.Fatalf("order=%v, want d,b,a", ids)
	}
}

func TestBoardCompletesSelectedTask(t *testing.T) {
	now := time.Now()
	m := newModel(t, engine.Seed{History: []engine.TaskRecord{{ID: "t1", Text: "escrever", CreatedAt: now}}})

	m, _ = step(m, m.loadCmd()())
	if len(m.tasks) != 1 || m.loading {
		t.Fatalf("tasks=%d loading=%v", len(m.tasks), m.loading)
	}
	if !strings.Contains(m.View(), "escrever") {
		t.Fatalf("view missing task:\n%s", m.View())
	}

	m, cmd := step(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd == nil {
		t.Fatalf("expected complete command")
	}
	m, cmd = step(m, cmd())
	// 5 for the task plus 25 for first_task.
	if !strings.Contains(m.lastLog, "+30 XP") {
		t.Fatalf("lastLog=%q", m.lastLog)
	}
	m, _ = step(m, cmd())
	if len(m.tasks) != 0 {
		t.Fatalf("completed task still listed")
	}
	if m.stats.TotalTasksCompleted != 1 {
		t.Fatalf("completed=%d, want 1", m.stats.TotalTasksCompleted)
	}
}

func TestBoardQuit(t *testing.T) {
	m := newModel(t, engine.Seed{})
	_, cmd := step(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
