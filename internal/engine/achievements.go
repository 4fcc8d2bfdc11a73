package engine

import (
	"strings"
	"time"
)

// RequirementKind identifies what an achievement counts.
type RequirementKind int

const (
	KindUnknown RequirementKind = iota
	KindTasksCompleted
	KindDailyTasks
	KindTotalTasksCreated
	KindPriorityTasks
	KindConsecutiveDays
	KindTotalXP
	KindLevel
	KindEarlyTasks
	KindLateTasks
	KindMorningTasks
	KindAfternoonTasks
	KindEveningTasks
)

var kindNames = map[RequirementKind]string{
	KindTasksCompleted:    "tasks_completed",
	KindDailyTasks:        "daily_tasks",
	KindTotalTasksCreated: "total_tasks_created",
	KindPriorityTasks:     "priority_tasks",
	KindConsecutiveDays:   "consecutive_days",
	KindTotalXP:           "total_xp",
	KindLevel:             "level",
	KindEarlyTasks:        "early_tasks",
	KindLateTasks:         "late_tasks",
	KindMorningTasks:      "morning_tasks",
	KindAfternoonTasks:    "afternoon_tasks",
	KindEveningTasks:      "evening_tasks",
}

func (k RequirementKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseRequirementKind maps a stored kind name to a RequirementKind.
// Unrecognized names yield KindUnknown, which never progresses.
func ParseRequirementKind(s string) RequirementKind {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "total_tasks_completed" {
		return KindTasksCompleted
	}
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Requirement is the predicate an achievement is unlocked by.
type Requirement struct {
	Kind      RequirementKind `json:"kind"`
	Threshold int             `json:"threshold"`
}

// AchievementDefinition is an immutable catalog entry.
type AchievementDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	XPReward    int         `json:"xp_reward"`
	Requirement Requirement `json:"requirement"`
}

// Catalog is the process-wide achievement list. IDs are stable; clients store them.
var Catalog = []AchievementDefinition{
	{ID: "first_task", Name: "Primeiro Passo", Description: "Conclua sua primeira tarefa", Icon: "🌱", XPReward: 25, Requirement: Requirement{KindTasksCompleted, 1}},
	{ID: "task_10", Name: "Produtivo", Description: "Conclua 10 tarefas", Icon: "📋", XPReward: 50, Requirement: Requirement{KindTasksCompleted, 10}},
	{ID: "task_50", Name: "Realizador", Description: "Conclua 50 tarefas", Icon: "🏅", XPReward: 150, Requirement: Requirement{KindTasksCompleted, 50}},
	{ID: "task_100", Name: "Imparável", Description: "Conclua 100 tarefas", Icon: "🏆", XPReward: 300, Requirement: Requirement{KindTasksCompleted, 100}},
	{ID: "daily_5", Name: "Dia Cheio", Description: "Conclua 5 tarefas em um dia", Icon: "📅", XPReward: 40, Requirement: Requirement{KindDailyTasks, 5}},
	{ID: "planner_10", Name: "Planejador", Description: "Crie 10 tarefas", Icon: "🗂️", XPReward: 20, Requirement: Requirement{KindTotalTasksCreated, 10}},
	{ID: "priority_5", Name: "Prioridades Certas", Description: "Conclua 5 tarefas prioritárias", Icon: "🎯", XPReward: 40, Requirement: Requirement{KindPriorityTasks, 5}},
	{ID: "streak_3", Name: "Constância", Description: "Conclua tarefas por 3 dias seguidos", Icon: "🔥", XPReward: 30, Requirement: Requirement{KindConsecutiveDays, 3}},
	{ID: "streak_7", Name: "Semana Perfeita", Description: "Conclua tarefas por 7 dias seguidos", Icon: "🌟", XPReward: 100, Requirement: Requirement{KindConsecutiveDays, 7}},
	{ID: "xp_500", Name: "Colecionador", Description: "Acumule 500 XP", Icon: "💎", XPReward: 50, Requirement: Requirement{KindTotalXP, 500}},
	{ID: "level_5", Name: "Em Ascensão", Description: "Alcance o nível 5", Icon: "🚀", XPReward: 75, Requirement: Requirement{KindLevel, 5}},
	{ID: "early_bird", Name: "Madrugador", Description: "Conclua 5 tarefas antes das 9h", Icon: "🌅", XPReward: 30, Requirement: Requirement{KindEarlyTasks, 5}},
	{ID: "night_owl", Name: "Coruja", Description: "Conclua 5 tarefas depois das 22h", Icon: "🦉", XPReward: 30, Requirement: Requirement{KindLateTasks, 5}},
	{ID: "morning_10", Name: "Manhã Produtiva", Description: "Conclua 10 tarefas pela manhã", Icon: "☀️", XPReward: 30, Requirement: Requirement{KindMorningTasks, 10}},
	{ID: "afternoon_10", Name: "Tarde Produtiva", Description: "Conclua 10 tarefas à tarde", Icon: "🌤️", XPReward: 30, Requirement: Requirement{KindAfternoonTasks, 10}},
	{ID: "evening_10", Name: "Noite Produtiva", Description: "Conclua 10 tarefas à noite", Icon: "🌙", XPReward: 30, Requirement: Requirement{KindEveningTasks, 10}},
}

// NewAchievementStates returns one locked state per definition, in catalog order.
func NewAchievementStates(catalog []AchievementDefinition) []AchievementState {
	out := make([]AchievementState, len(catalog))
	for i, def := range catalog {
		out[i] = AchievementState{AchievementDefinition: def}
	}
	return out
}

// AchievementProgress is how close an achievement is to unlocking.
type AchievementProgress struct {
	Current    int
	Required   int
	Percentage float64
}

// hourWindow reports whether a completion hour counts toward kind.
func hourWindow(kind RequirementKind, hour int) bool {
	switch kind {
	case KindEarlyTasks:
		return hour < 9
	case KindLateTasks:
		return hour >= 22
	case KindMorningTasks:
		return hour >= 6 && hour < 12
	case KindAfternoonTasks:
		return hour >= 12 && hour < 18
	case KindEveningTasks:
		return hour >= 18 && hour < 22
	default:
		return false
	}
}

// RequirementValue is the current count for a requirement kind.
func RequirementValue(kind RequirementKind, history []TaskRecord, stats ProductivityStats, now time.Time) int {
	switch kind {
	case KindTasksCompleted:
		return countCompleted(history, func(TaskRecord) bool { return true })
	case KindDailyTasks:
		return countCompleted(history, func(t TaskRecord) bool {
			return sameDay(t.CompletedAt.In(now.Location()), now)
		})
	case KindTotalTasksCreated:
		return len(history)
	case KindPriorityTasks:
		return countCompleted(history, func(t TaskRecord) bool { return t.Priority })
	case KindConsecutiveDays:
		return stats.ConsecutiveDays
	case KindTotalXP:
		return stats.TotalXP
	case KindLevel:
		return stats.CurrentLevel
	case KindEarlyTasks, KindLateTasks, KindMorningTasks, KindAfternoonTasks, KindEveningTasks:
		return countCompleted(history, func(t TaskRecord) bool {
			return hourWindow(kind, t.CompletedAt.In(now.Location()).Hour())
		})
	case KindUnknown:
		return 0
	default:
		return 0
	}
}

func countCompleted(history []TaskRecord, keep func(TaskRecord) bool) int {
	n := 0
	for _, t := range history {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		if keep(t) {
			n++
		}
	}
	return n
}

// Progress computes progress for one achievement. Unlocked achievements are
// frozen at 100%.
func Progress(a AchievementState, history []TaskRecord, stats ProductivityStats, now time.Time) AchievementProgress {
	req := a.Requirement.Threshold
	if a.Unlocked {
		return AchievementProgress{Current: req, Required: req, Percentage: 100}
	}
	cur := RequirementValue(a.Requirement.Kind, history, stats, now)
	p := AchievementProgress{Current: cur, Required: req}
	if a.Requirement.Kind == KindUnknown || req <= 0 {
		return p
	}
	p.Percentage = float64(cur) / float64(req) * 100
	if p.Percentage > 100 {
		p.Percentage = 100
	}
	return p
}

// Satisfied reports whether a locked achievement has met its requirement.
func Satisfied(a AchievementState, history []TaskRecord, stats ProductivityStats, now time.Time) bool {
	if a.Unlocked || a.Requirement.Kind == KindUnknown || a.Requirement.Threshold <= 0 {
		return false
	}
	return RequirementValue(a.Requirement.Kind, history, stats, now) >= a.Requirement.Threshold
}

// NextAchievement returns the locked achievement closest to unlocking, ties
// broken by catalog order. ok is false when everything is unlocked.
func NextAchievement(achievements []AchievementState, history []TaskRecord, stats ProductivityStats, now time.Time) (next AchievementState, progress AchievementProgress, ok bool) {
	for _, a := range achievements {
		if a.Unlocked {
			continue
		}
		p := Progress(a, history, stats, now)
		if !ok || p.Percentage > progress.Percentage {
			next, progress, ok = a, p, true
		}
	}
	return next, progress, ok
}

// CountUnlocked returns how many achievements have been unlocked.
func CountUnlocked(achievements []AchievementState) int {
	n := 0
	for _, a := range achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}
