package domain

import (
	"fmt"
	"sort"
)

// Level is one row of the static level table.
type Level struct {
	Level        int   `db:"level" json:"level"`
	XPRequired   int64 `db:"xp_required" json:"xp_required"`
	RewardTokens int64 `db:"reward_tokens" json:"reward_tokens"`
}

// LevelTable is the ordered, immutable level list loaded once at startup.
type LevelTable struct {
	levels []Level
}

// NewLevelTable validates and sorts levels.
// Level 1 must require 0 XP and both level and xp_required must strictly increase.
func NewLevelTable(levels []Level) (*LevelTable, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("level table is empty")
	}

	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	if sorted[0].Level != 1 || sorted[0].XPRequired != 0 {
		return nil, fmt.Errorf("level 1 must exist with xp_required = 0")
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Level != prev.Level+1 {
			return nil, fmt.Errorf("level table has a gap after level %d", prev.Level)
		}
		if cur.XPRequired <= prev.XPRequired {
			return nil, fmt.Errorf("level %d xp_required %d is not above level %d", cur.Level, cur.XPRequired, prev.Level)
		}
		if cur.RewardTokens < 0 {
			return nil, fmt.Errorf("level %d has negative reward", cur.Level)
		}
	}

	return &LevelTable{levels: sorted}, nil
}

// Levels returns a copy of the table rows.
func (t *LevelTable) Levels() []Level {
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

// ForXP returns the greatest level whose xp_required <= xp.
func (t *LevelTable) ForXP(xp int64) Level {
	i := sort.Search(len(t.levels), func(i int) bool { return t.levels[i].XPRequired > xp })
	if i == 0 {
		return t.levels[0]
	}
	return t.levels[i-1]
}

// Get returns the row for level, if present.
func (t *LevelTable) Get(level int) (Level, bool) {
	idx := level - 1
	if idx < 0 || idx >= len(t.levels) {
		return Level{}, false
	}
	return t.levels[idx], true
}

// TokensBetween sums reward_tokens for every level in (from, to].
func (t *LevelTable) TokensBetween(from, to int) int64 {
	var total int64
	for lvl := from + 1; lvl <= to; lvl++ {
		if row, ok := t.Get(lvl); ok {
			total += row.RewardTokens
		}
	}
	return total
}

// LevelUpTokens is the token reward for moving from oldXP to newXP.
func (t *LevelTable) LevelUpTokens(oldXP, newXP int64) int64 {
	return t.TokensBetween(t.ForXP(oldXP).Level, t.ForXP(newXP).Level)
}

// XPChange is what the ledger reports after an atomic XP increment.
type XPChange struct {
	OldXP          int64
	NewXP          int64
	RewardedTokens int64
	Tokens         int64
}

// XPResult is the reward resolver's answer for one XP grant.
type XPResult struct {
	TotalXP         int64 `json:"totalXP"`
	Level           int   `json:"level"`
	ProgressInLevel int64 `json:"progressInLevel"`
	XPForThisLevel  int64 `json:"xpForThisLevel"`
	RewardedTokens  int64 `json:"rewardedTokens"`
	LeveledUp       bool  `json:"leveledUp"`
	Tokens          int64 `json:"tokens"`
}

// Progress describes where xp sits inside its level.
// At max level the next threshold falls back to xp itself.
func (t *LevelTable) Progress(xp int64) (level Level, progressInLevel, xpForThisLevel int64) {
	level = t.ForXP(xp)
	nextRequired := xp
	if next, ok := t.Get(level.Level + 1); ok {
		nextRequired = next.XPRequired
	}
	return level, xp - level.XPRequired, nextRequired - level.XPRequired
}

// Resolve builds the XPResult for a completed increment.
func (t *LevelTable) Resolve(change XPChange) XPResult {
	oldLevel := t.ForXP(change.OldXP)
	level, progress, span := t.Progress(change.NewXP)
	return XPResult{
		TotalXP:         change.NewXP,
		Level:           level.Level,
		ProgressInLevel: progress,
		XPForThisLevel:  span,
		RewardedTokens:  change.RewardedTokens,
		LeveledUp:       level.Level > oldLevel.Level,
		Tokens:          change.Tokens,
	}
}
