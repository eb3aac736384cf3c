package reconcile

import (
	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
)

// ComputeXP prices a reconciled completion. Restrictive filters make a roll
// easier to satisfy, so each active filter discounts the base; the round
// bonus scales linearly up to round 100.
func ComputeXP(filter models.FilterSpec, roundReached int) int {
	base := game_constants.XPBase - filter.ActiveFilters()*game_constants.XPFilterPenalty
	if base < game_constants.XPMin {
		base = game_constants.XPMin
	}

	round := roundReached
	if round > game_constants.XPMaxBonusRound {
		round = game_constants.XPMaxBonusRound
	}
	if round < 0 {
		round = 0
	}
	bonus := round * (game_constants.XPMax - game_constants.XPBase) / game_constants.XPMaxBonusRound

	xp := base + bonus
	if xp < game_constants.XPMin {
		xp = game_constants.XPMin
	}
	if xp > game_constants.XPMax {
		xp = game_constants.XPMax
	}
	return xp
}
