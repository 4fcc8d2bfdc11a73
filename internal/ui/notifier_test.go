package ui

import (
	"bytes"
	"strings"
	"testing"

	"levelup/internal/engine"
)

func TestNotifierWritesOneLinePerNotification(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf)
	n.Notify(engine.Notification{Kind: engine.NotifyXPDelta, XP: 10, Message: "Tarefa concluída"})
	n.Notify(engine.Notification{Kind: engine.NotifyXPDelta, XP: -10, Message: "Nenhuma tarefa concluída"})

	out := buf.String()
	if !strings.Contains(out, "+10 XP") || !strings.Contains(out, "-10 XP") {
		t.Fatalf("output missing deltas: %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("want 2 lines, got %q", out)
	}
}

func TestFormatNotificationKinds(t *testing.T) {
	cases := []engine.Notification{
		{Kind: engine.NotifyLevelUp, Title: "Nível 2: Aprendiz!", Message: "Você pegou o ritmo!"},
		{Kind: engine.NotifyPlanLimit, Title: "Limite do plano atingido", Message: "faça upgrade"},
		{Kind: engine.NotifyAchievement, Title: "Conquista desbloqueada: Primeiro Passo", Message: "(+25 XP)"},
	}
	for _, c := range cases {
		got := FormatNotification(c)
		if !strings.Contains(got, c.Title) || !strings.Contains(got, c.Message) {
			t.Fatalf("%s: %q missing title or message", c.Kind, got)
		}
	}
}

func TestProgressBarClamps(t *testing.T) {
	if got := ProgressBar(50, 100, 10); got != "[#####-----]" {
		t.Fatalf("half bar=%q", got)
	}
	if got := ProgressBar(500, 100, 4); got != "[####]" {
		t.Fatalf("overfull bar=%q", got)
	}
	if got := ProgressBar(-3, 0, 4); got != "[----]" {
		t.Fatalf("empty bar=%q", got)
	}
}
