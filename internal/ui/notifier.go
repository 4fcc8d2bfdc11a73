package ui

import (
	"fmt"
	"io"
	"sync"

	"levelup/internal/engine"
)

// Notifier prints engine notifications as styled lines. It implements
// engine.Notifier and is safe for concurrent use.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(note engine.Notification) {
	line := FormatNotification(note)
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, line)
}

// FormatNotification renders one notification.
func FormatNotification(n engine.Notification) string {
	switch n.Kind {
	case engine.NotifyXPDelta:
		return fmt.Sprintf("%s %s %s", IconBolt, SignedXP(n.XP), Muted.Render(n.Message))
	case engine.NotifyLevelUp:
		return fmt.Sprintf("%s %s %s\n   %s", IconStar, BadgeLevelUp, Gold.Render(n.Title), n.Message)
	case engine.NotifyPlanLimit:
		return fmt.Sprintf("%s %s %s\n   %s", IconLock, BadgeCapped, Warn.Render(n.Title), n.Message)
	case engine.NotifyAchievement:
		return fmt.Sprintf("%s %s\n   %s", IconTrophy, Gold.Render(n.Title), n.Message)
	default:
		return fmt.Sprintf("%s %s %s", IconInfo, n.Title, n.Message)
	}
}
