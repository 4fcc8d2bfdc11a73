package engine

import (
	"sort"
	"time"
)

// DayStats is one day of the weekly rollup.
type DayStats struct {
	Date      time.Time `json:"date"`
	Created   int       `json:"created"`
	Completed int       `json:"completed"`
	XP        int       `json:"xp"`
}

// WeeklyStats are read-only rollups over the last seven days of history.
type WeeklyStats struct {
	Days           []DayStats `json:"days"`
	TasksCreated   int        `json:"tasks_created"`
	TasksCompleted int        `json:"tasks_completed"`
	CompletionRate float64    `json:"completion_rate"`
	BestDay        *DayStats  `json:"best_day,omitempty"`
	XPGained       int        `json:"xp_gained"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
}

const weekDays = 7

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ComputeWeekly derives the weekly rollup for the seven days ending on now.
func ComputeWeekly(history []TaskRecord, ledger []XPEvent, now time.Time) WeeklyStats {
	loc := now.Location()
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(weekDays - 1))

	days := make([]DayStats, weekDays)
	for i := range days {
		days[i].Date = first.AddDate(0, 0, i)
	}
	slot := func(t time.Time) int {
		d := startOfDay(t.In(loc))
		if d.Before(first) || d.After(today) {
			return -1
		}
		for i := range days {
			if days[i].Date.Equal(d) {
				return i
			}
		}
		return -1
	}

	for _, r := range history {
		if i := slot(r.CreatedAt); i >= 0 {
			days[i].Created++
		}
		if r.Completed && r.CompletedAt != nil {
			if i := slot(*r.CompletedAt); i >= 0 {
				days[i].Completed++
			}
		}
	}
	for _, e := range ledger {
		if e.Applied <= 0 {
			continue
		}
		if i := slot(e.At); i >= 0 {
			days[i].XP += e.Applied
		}
	}

	w := WeeklyStats{Days: days}
	for i := range days {
		w.TasksCreated += days[i].Created
		w.TasksCompleted += days[i].Completed
		w.XPGained += days[i].XP
		if days[i].Completed > 0 && (w.BestDay == nil || days[i].Completed > w.BestDay.Completed) {
			best := days[i]
			w.BestDay = &best
		}
	}
	if w.TasksCreated > 0 {
		w.CompletionRate = float64(w.TasksCompleted) / float64(w.TasksCreated) * 100
		if w.CompletionRate > 100 {
			w.CompletionRate = 100
		}
	}
	w.CurrentStreak, w.LongestStreak = Streaks(history, now)
	return w
}

// Streaks returns the current run of consecutive completion days (ending today,
// or yesterday when nothing is done yet today) and the longest run on record.
func Streaks(history []TaskRecord, now time.Time) (current, longest int) {
	loc := now.Location()
	seen := map[time.Time]bool{}
	for _, r := range history {
		if r.Completed && r.CompletedAt != nil {
			seen[startOfDay(r.CompletedAt.In(loc))] = true
		}
	}
	if len(seen) == 0 {
		return 0, 0
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	run := 0
	for i, d := range dates {
		if i > 0 && sameDay(dates[i-1].AddDate(0, 0, 1), d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	day := startOfDay(now)
	if !seen[day] {
		day = day.AddDate(0, 0, -1)
	}
	for seen[day] {
		current++
		day = day.AddDate(0, 0, -1)
	}
	return current, longest
}
