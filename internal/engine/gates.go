package engine

import (
	"fmt"
	"sort"
)

// Feature is a part of the app unlocked by level.
type Feature string

const (
	FeaturePomodoroStats  Feature = "pomodoro_stats"
	FeatureLibrary        Feature = "library"
	FeatureCalendarExport Feature = "calendar_export"
	FeatureCustomThemes   Feature = "custom_themes"
	FeatureWeeklyReport   Feature = "weekly_report"
)

// FeatureUnlockLevels maps features to the displayed level that unlocks them.
var FeatureUnlockLevels = map[Feature]int{
	FeaturePomodoroStats:  2,
	FeatureWeeklyReport:   3,
	FeatureLibrary:        5,
	FeatureCalendarExport: 7,
	FeatureCustomThemes:   10,
}

// CapLevel clamps a raw table level to the plan's ceiling.
func CapLevel(rawLevel int, plan SubscriptionPlan) int {
	if rawLevel > plan.MaxLevel {
		return plan.MaxLevel
	}
	return rawLevel
}

// gatedLevel is the displayed level view for xp under plan.
type gatedLevel struct {
	LevelInfo
	RawLevel int
	Capped   bool
}

func applyGate(table *LevelTable, xp int, plan SubscriptionPlan) gatedLevel {
	raw := table.LevelFor(xp)
	capped := CapLevel(raw.Level, plan)
	if capped >= raw.Level {
		return gatedLevel{LevelInfo: raw, RawLevel: raw.Level}
	}
	if capped < 1 {
		capped = 1
	}
	shown := table.LevelFor(table.XPRequiredForLevel(capped))
	return gatedLevel{LevelInfo: shown, RawLevel: raw.Level, Capped: true}
}

// CanAccessAtLevel returns a GateError when feature is locked at level.
func CanAccessAtLevel(level int, feature Feature, plan SubscriptionPlan) error {
	req, ok := FeatureUnlockLevels[feature]
	if !ok {
		return fmt.Errorf("unknown feature: %q", feature)
	}
	if level >= req {
		return nil
	}
	return GateError{
		Feature:       string(feature),
		RequiredLevel: req,
		CurrentLevel:  level,
		PlanLimited:   plan.MaxLevel < req,
	}
}

// Features returns every gated feature ordered by unlock level.
func Features() []Feature {
	out := make([]Feature, 0, len(FeatureUnlockLevels))
	for f := range FeatureUnlockLevels {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := FeatureUnlockLevels[out[i]], FeatureUnlockLevels[out[j]]
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}
