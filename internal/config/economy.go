package config

import (
	"fmt"

	"fitquest/internal/domain"

	"github.com/BurntSushi/toml"
)

// Economy holds gameplay tuning. Values not present in the file keep their
// defaults.
type Economy struct {
	RespinCost int64 `toml:"respin_cost"`

	Challenge ChallengeRewards `toml:"challenge"`

	// Premium plans keyed by plan name.
	Plans map[string]domain.PremiumPlan `toml:"plans"`

	// Days of daily quest rows kept by the purge job.
	QuestRetentionDays int `toml:"quest_retention_days"`
}

type ChallengeRewards struct {
	WinnerXP     int64 `toml:"winner_xp"`
	WinnerTokens int64 `toml:"winner_tokens"`
	LoserXP      int64 `toml:"loser_xp"`
	LoserTokens  int64 `toml:"loser_tokens"`
}

// DefaultEconomy returns the built-in tuning.
func DefaultEconomy() Economy {
	return Economy{
		RespinCost: 50,
		Challenge: ChallengeRewards{
			WinnerXP:     150,
			WinnerTokens: 100,
			LoserXP:      30,
			LoserTokens:  20,
		},
		Plans: map[string]domain.PremiumPlan{
			"monthly":  {Name: "monthly", DurationDays: 30, Price: 2.99, TokenCost: 4000},
			"yearly":   {Name: "yearly", DurationDays: 365, Price: 19.99, TokenCost: 19000},
			"lifetime": {Name: "lifetime", DurationDays: domain.LifetimeDays, Price: 49.00, TokenCost: 99000},
		},
		QuestRetentionDays: 30,
	}
}

// LoadEconomy decodes path over the defaults. An empty path returns the
// defaults unchanged.
func LoadEconomy(path string) (Economy, error) {
	eco := DefaultEconomy()
	if path == "" {
		return eco, nil
	}

	var file Economy
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return eco, fmt.Errorf("decode economy file %s: %w", path, err)
	}

	if file.RespinCost > 0 {
		eco.RespinCost = file.RespinCost
	}
	if file.Challenge.WinnerXP > 0 {
		eco.Challenge.WinnerXP = file.Challenge.WinnerXP
	}
	if file.Challenge.WinnerTokens > 0 {
		eco.Challenge.WinnerTokens = file.Challenge.WinnerTokens
	}
	if file.Challenge.LoserXP > 0 {
		eco.Challenge.LoserXP = file.Challenge.LoserXP
	}
	if file.Challenge.LoserTokens > 0 {
		eco.Challenge.LoserTokens = file.Challenge.LoserTokens
	}
	if file.QuestRetentionDays > 0 {
		eco.QuestRetentionDays = file.QuestRetentionDays
	}
	for name, plan := range file.Plans {
		plan.Name = name
		if plan.DurationDays <= 0 {
			return eco, fmt.Errorf("plan %q: duration_days must be positive", name)
		}
		if plan.TokenCost < 0 || plan.Price < 0 {
			return eco, fmt.Errorf("plan %q: negative cost", name)
		}
		eco.Plans[name] = plan
	}

	return eco, nil
}
