package ui

import (
	"fmt"
	"strings"

	"levelup/internal/engine"
)

// StatsSummary renders the status block shown by `lvl status`.
func StatsSummary(st engine.ProductivityStats, plan engine.SubscriptionPlan) string {
	var b strings.Builder
	b.WriteString(Heading(IconStar, fmt.Sprintf("Nível %d: %s", st.CurrentLevel, st.LevelName)))
	if st.PlanCapped {
		b.WriteString(" " + BadgeCapped)
	}
	b.WriteString("\n")

	span := st.XPInCurrentLevel + st.XPToNextLevel
	if st.XPToNextLevel > 0 && !st.PlanCapped {
		b.WriteString(fmt.Sprintf("%s %d/%d\n", ProgressBar(st.XPInCurrentLevel, span, 30), st.XPInCurrentLevel, span))
	}
	b.WriteString(LabelValue("XP total", st.TotalXP) + "\n")
	b.WriteString(LabelValue("Plano", fmt.Sprintf("%s (até nível %d)", plan.Plan, plan.MaxLevel)) + "\n")
	b.WriteString(LabelValue("Tarefas concluídas", st.TotalTasksCompleted) + "\n")
	b.WriteString(LabelValue("Sequência", fmt.Sprintf("%d dia(s) %s", st.ConsecutiveDays, IconFire)) + "\n")
	b.WriteString(LabelValue("Conquistas", fmt.Sprintf("%d/%d", engine.CountUnlocked(st.Achievements), len(st.Achievements))))
	return b.String()
}

// AchievementRow renders one achievement with its progress.
func AchievementRow(a engine.AchievementState, p engine.AchievementProgress) string {
	if a.Unlocked {
		return fmt.Sprintf("%s %s %s", IconDone, Good.Render(a.Name), Muted.Render(a.Description))
	}
	return fmt.Sprintf("%s %s %s %d/%d %s", a.Icon, a.Name, PercentBar(p.Percentage, 12), p.Current, p.Required, Muted.Render(fmt.Sprintf("+%d XP", a.XPReward)))
}

// WeekTable renders the seven-day summary.
func WeekTable(w engine.WeeklyStats) string {
	max := 1
	for _, d := range w.Days {
		if d.Completed > max {
			max = d.Completed
		}
	}
	var b strings.Builder
	b.WriteString(Heading(IconCal, "Últimos 7 dias") + "\n")
	for _, d := range w.Days {
		b.WriteString(fmt.Sprintf("%s %s %d\n", d.Date.Format("Mon 02/01"), ProgressBar(d.Completed, max, 14), d.Completed))
	}
	b.WriteString(LabelValue("Criadas", w.TasksCreated) + "  " + LabelValue("Concluídas", w.TasksCompleted) + "\n")
	b.WriteString(LabelValue("Taxa de conclusão", fmt.Sprintf("%.0f%%", w.CompletionRate)) + "\n")
	if w.BestDay != nil {
		b.WriteString(LabelValue("Melhor dia", fmt.Sprintf("%s (%d)", w.BestDay.Date.Format("02/01"), w.BestDay.Completed)) + "\n")
	}
	b.WriteString(LabelValue("XP na semana", w.XPGained) + "\n")
	b.WriteString(LabelValue("Sequência", fmt.Sprintf("atual %d, recorde %d", w.CurrentStreak, w.LongestStreak)))
	return b.String()
}
