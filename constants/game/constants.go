package game_constants

import "time"

// Mystery box token economy
const TokenCap = 3
const TokenInterval = 24 * time.Hour

// XP awarded for a reconciled mystery box completion
const (
	XPMin = 5
	XPMax = 100
	// unrestricted-roll anchor
	XPBase = 50
	// per active filter, more restrictive rolls are worth less
	XPFilterPenalty = 12
	XPMaxBonusRound = 100
)

// Modifier tag keys attached to a roll. A key that is absent from a roll's
// tags imposes no constraint on submitted runs.
const (
	TagAlternateCurrency = "alternate_currency"
	TagFirstRoomOnly     = "first_room_only"
	TagStartingLoadout   = "starting_loadout"
	TagCursedRelics      = "cursed_relics"
)

// Per-family trial probabilities. Families are evaluated independently, so
// a single roll can carry several tags at once.
const (
	AlternateCurrencyProb = 0.25
	FirstRoomOnlyProb     = 0.20
	StartingLoadoutProb   = 0.20
	CursedRelicsProb      = 0.15
)

// CursedRelicSet is the fixed pool a cursed-run overlay draws its random
// non-empty relic subset from.
var CursedRelicSet = []string{
	"blood_debt",
	"iron_vow",
	"hollow_eye",
	"last_breath",
}

// Lobby codes are short so they can be read out over voice chat
const LobbyCodeLength = 6

// Pending confirmation statuses
const (
	PendingStatusPending   = "PENDING"
	PendingStatusConfirmed = "CONFIRMED"
)

// Run log types
const (
	LogTypeChallenge = "challenge"
	LogTypeEasterEgg = "easter_egg"
)
