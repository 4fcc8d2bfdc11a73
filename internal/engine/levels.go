package engine

import (
	"errors"
	"fmt"
)

// LevelDefinition maps a level number to the cumulative XP needed to reach it.
type LevelDefinition struct {
	Level      int    `json:"level" yaml:"level"`
	Name       string `json:"name" yaml:"name"`
	XPRequired int    `json:"xp_required" yaml:"xp_required"`
}

// LevelInfo is the derived view of a cumulative XP total.
type LevelInfo struct {
	Level            int
	Name             string
	XPInCurrentLevel int
	XPToNextLevel    int
}

// LevelTable is an ordered, immutable list of level thresholds.
type LevelTable struct {
	defs []LevelDefinition
}

// DefaultLevels is the process-wide level table.
var DefaultLevels = MustLevelTable([]LevelDefinition{
	{Level: 1, Name: "Iniciante", XPRequired: 0},
	{Level: 2, Name: "Praticante", XPRequired: 100},
	{Level: 3, Name: "Aprendiz", XPRequired: 250},
	{Level: 4, Name: "Organizado", XPRequired: 450},
	{Level: 5, Name: "Focado", XPRequired: 700},
	{Level: 6, Name: "Disciplinado", XPRequired: 1000},
	{Level: 7, Name: "Produtivo", XPRequired: 1400},
	{Level: 8, Name: "Eficiente", XPRequired: 1900},
	{Level: 9, Name: "Especialista", XPRequired: 2500},
	{Level: 10, Name: "Mestre", XPRequired: 3200},
	{Level: 11, Name: "Grão-Mestre", XPRequired: 4000},
	{Level: 12, Name: "Virtuoso", XPRequired: 5000},
	{Level: 13, Name: "Lenda", XPRequired: 6200},
	{Level: 14, Name: "Mito", XPRequired: 7600},
	{Level: 15, Name: "Imortal", XPRequired: 9200},
})

var errEmptyLevelTable = errors.New("level table is empty")

// NewLevelTable validates defs and returns a table over a private copy of them.
func NewLevelTable(defs []LevelDefinition) (*LevelTable, error) {
	if len(defs) == 0 {
		return nil, errEmptyLevelTable
	}
	if defs[0].Level != 1 || defs[0].XPRequired != 0 {
		return nil, fmt.Errorf("level table must start at level 1 with 0 xp, got level %d at %d xp", defs[0].Level, defs[0].XPRequired)
	}
	for i, d := range defs {
		if d.XPRequired < 0 {
			return nil, fmt.Errorf("level %d has negative xp requirement %d", d.Level, d.XPRequired)
		}
		if i == 0 {
			continue
		}
		prev := defs[i-1]
		if d.Level != prev.Level+1 {
			return nil, fmt.Errorf("level table not contiguous: level %d follows %d", d.Level, prev.Level)
		}
		if d.XPRequired <= prev.XPRequired {
			return nil, fmt.Errorf("level table not sorted: level %d requires %d xp, level %d requires %d", d.Level, d.XPRequired, prev.Level, prev.XPRequired)
		}
	}
	cp := make([]LevelDefinition, len(defs))
	copy(cp, defs)
	return &LevelTable{defs: cp}, nil
}

// MustLevelTable is like NewLevelTable but panics on an invalid table.
func MustLevelTable(defs []LevelDefinition) *LevelTable {
	t, err := NewLevelTable(defs)
	if err != nil {
		panic("engine: " + err.Error())
	}
	return t
}

// MaxLevel returns the highest defined level.
func (t *LevelTable) MaxLevel() int {
	return t.defs[len(t.defs)-1].Level
}

// Definitions returns a copy of the table.
func (t *LevelTable) Definitions() []LevelDefinition {
	out := make([]LevelDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// Def returns the definition for level, clamped into the table's range.
func (t *LevelTable) Def(level int) LevelDefinition {
	if level < 1 {
		level = 1
	}
	if level > t.MaxLevel() {
		level = t.MaxLevel()
	}
	return t.defs[level-1]
}

// XPRequiredForLevel returns the cumulative XP threshold of level.
func (t *LevelTable) XPRequiredForLevel(level int) int {
	return t.Def(level).XPRequired
}

// LevelFor derives the level info for a cumulative XP total.
func (t *LevelTable) LevelFor(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	for i := len(t.defs) - 1; i >= 0; i-- {
		d := t.defs[i]
		if d.XPRequired > xp {
			continue
		}
		info := LevelInfo{
			Level:            d.Level,
			Name:             d.Name,
			XPInCurrentLevel: xp - d.XPRequired,
		}
		if i+1 < len(t.defs) {
			info.XPToNextLevel = t.defs[i+1].XPRequired - xp
		}
		return info
	}
	// Unreachable for a validated table: level 1 requires 0 xp.
	return LevelInfo{Level: t.defs[0].Level, Name: t.defs[0].Name}
}

// ProgressPercent is how far xp is through its current level, 0..100.
func (t *LevelTable) ProgressPercent(xp int) float64 {
	info := t.LevelFor(xp)
	span := info.XPInCurrentLevel + info.XPToNextLevel
	if info.XPToNextLevel == 0 || span == 0 {
		return 100
	}
	return float64(info.XPInCurrentLevel) / float64(span) * 100
}
