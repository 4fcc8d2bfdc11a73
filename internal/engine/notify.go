package engine

import (
	"fmt"
	"time"
)

// NotificationKind is the message class shown by the notification sink.
type NotificationKind string

const (
	NotifyXPDelta     NotificationKind = "xp_delta"
	NotifyLevelUp     NotificationKind = "level_up"
	NotifyPlanLimit   NotificationKind = "plan_limit"
	NotifyAchievement NotificationKind = "achievement"
)

// Notification is a fire-and-forget message for the user.
type Notification struct {
	Kind        NotificationKind
	Title       string
	Message     string
	XP          int
	Level       int
	LevelName   string
	Achievement *AchievementState
	At          time.Time
}

// Notifier receives notifications. Implementations must not call back into the
// Session that emitted them.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

func xpDeltaNotification(applied int, reason string, now time.Time) Notification {
	n := Notification{Kind: NotifyXPDelta, XP: applied, At: now}
	if applied >= 0 {
		n.Title = fmt.Sprintf("+%d XP", applied)
	} else {
		n.Title = fmt.Sprintf("%d XP", applied)
	}
	n.Message = reason
	return n
}

func levelUpNotification(level LevelInfo, msg string, now time.Time) Notification {
	return Notification{
		Kind:      NotifyLevelUp,
		Title:     fmt.Sprintf("Nível %d: %s!", level.Level, level.Name),
		Message:   msg,
		Level:     level.Level,
		LevelName: level.Name,
		At:        now,
	}
}

func planLimitNotification(level LevelInfo, plan SubscriptionPlan, now time.Time) Notification {
	return Notification{
		Kind:      NotifyPlanLimit,
		Title:     "Limite do plano atingido",
		Message:   fmt.Sprintf("Seu plano %s vai até o nível %d. Faça upgrade para liberar os níveis que você já conquistou.", plan.Plan, plan.MaxLevel),
		Level:     level.Level,
		LevelName: level.Name,
		At:        now,
	}
}

func achievementNotification(a AchievementState, now time.Time) Notification {
	cp := a
	return Notification{
		Kind:        NotifyAchievement,
		Title:       fmt.Sprintf("%s Conquista desbloqueada: %s", a.Icon, a.Name),
		Message:     fmt.Sprintf("%s (+%d XP)", a.Description, a.XPReward),
		XP:          a.XPReward,
		Achievement: &cp,
		At:          now,
	}
}
