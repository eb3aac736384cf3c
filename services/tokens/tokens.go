package tokens

import (
	"time"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"gorm.io/gorm"
)

// TokenState is what the UI needs to render the token counter: the
// refreshed count and, while below cap, when the next token lands.
type TokenState struct {
	Tokens      int        `json:"tokens"`
	NextTokenAt *time.Time `json:"next_token_at,omitempty"`
}

// advance replays the accrual cadence up to now. The next token becomes
// eligible at lastTokenAt + (tokens+1)*interval; an account with no history
// is eligible immediately but earns nothing retroactively. Each credited
// token moves lastTokenAt forward by exactly one interval rather than
// resetting it to now, which keeps the cadence fixed.
func advance(tokens int, lastTokenAt *time.Time, now time.Time) (int, *time.Time) {
	for tokens < game_constants.TokenCap {
		if lastTokenAt == nil {
			tokens++
			t := now
			lastTokenAt = &t
			continue
		}
		due := lastTokenAt.Add(time.Duration(tokens+1) * game_constants.TokenInterval)
		if now.Before(due) {
			break
		}
		tokens++
		t := lastTokenAt.Add(game_constants.TokenInterval)
		lastTokenAt = &t
	}
	return tokens, lastTokenAt
}

// nextEligibleAt reports when the next token lands, or nil at cap.
func nextEligibleAt(tokens int, lastTokenAt *time.Time) *time.Time {
	if tokens >= game_constants.TokenCap || lastTokenAt == nil {
		return nil
	}
	t := lastTokenAt.Add(time.Duration(tokens+1) * game_constants.TokenInterval)
	return &t
}

// Accrue lazily brings an account's token count up to date and persists the
// result. The catch-up write is guarded on the exact state it was computed
// from: if a concurrent spend or accrual moved the row in between, the
// UPDATE matches nothing and the whole thing retries from a fresh read, so
// an accrual can never write back a token that was spent under it. The only
// failure mode besides database errors is the profile not existing,
// surfaced as gorm.ErrRecordNotFound.
func Accrue(db *gorm.DB, username string, now time.Time) (*TokenState, error) {
	for {
		var profile models.PlayerProfile
		if err := db.Where("username = ?", username).First(&profile).Error; err != nil {
			return nil, err
		}

		tokens, lastAt := advance(profile.BoxTokens, profile.LastTokenAt, now)
		if tokens == profile.BoxTokens {
			return &TokenState{Tokens: tokens, NextTokenAt: nextEligibleAt(tokens, lastAt)}, nil
		}

		res := db.Model(&models.PlayerProfile{}).
			Where("username = ? AND box_tokens = ? AND last_token_at IS NOT DISTINCT FROM ?",
				username, profile.BoxTokens, profile.LastTokenAt).
			Updates(map[string]interface{}{
				"box_tokens":    tokens,
				"last_token_at": lastAt,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &TokenState{Tokens: tokens, NextTokenAt: nextEligibleAt(tokens, lastAt)}, nil
		}
		// Lost the race, somebody else moved the row first
	}
}

// Spend atomically takes one token from the account. The guarded UPDATE is
// the linearization point: two concurrent spends against a single remaining
// token can never both see box_tokens >= 1.
func Spend(db *gorm.DB, username string) (bool, error) {
	res := db.Model(&models.PlayerProfile{}).
		Where("username = ? AND box_tokens >= 1", username).
		UpdateColumn("box_tokens", gorm.Expr("box_tokens - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Refund credits one token back after a failed group roll. The LEAST guard
// keeps the cap invariant even if an accrual slipped in between the spend
// and the refund.
func Refund(db *gorm.DB, username string) error {
	return db.Model(&models.PlayerProfile{}).
		Where("username = ?", username).
		UpdateColumn("box_tokens", gorm.Expr("LEAST(box_tokens + 1, ?)", game_constants.TokenCap)).
		Error
}
