package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'RollTags' are the optional modifier constraints a roll carries. A nil
 * field means the roll imposes no constraint on that modifier: the base
 * challenge is always valid on its own and every tag is an extra
 * restriction layered on top.
 */
type RollTags struct {
	AlternateCurrency *bool    `json:"alternate_currency,omitempty"`
	FirstRoomOnly     *bool    `json:"first_room_only,omitempty"`
	StartingLoadout   *string  `json:"starting_loadout,omitempty"`
	CursedRelics      []string `json:"cursed_relics,omitempty"`
}

/*
 * 'FilterSpec' records the constraints in effect when a roll was drawn.
 * It is retained on the roll row because the XP formula discounts rolls
 * drawn under restrictive filters, and it is carried over when a roll is
 * copied into a departing account's solo lobby.
 */
type FilterSpec struct {
	ExcludedTitleIDs []uint `json:"excluded_title_ids,omitempty"`
	ExcludeSpeedruns bool   `json:"exclude_speedruns,omitempty"`
	MaxRound         *int   `json:"max_round,omitempty"`
}

// ActiveFilters counts how many of the recognized filters are in effect.
func (f FilterSpec) ActiveFilters() int {
	n := 0
	if len(f.ExcludedTitleIDs) > 0 {
		n++
	}
	if f.ExcludeSpeedruns {
		n++
	}
	if f.MaxRound != nil {
		n++
	}
	return n
}

/*
 * 'Roll' is a mystery box challenge assignment scoped to one lobby. The
 * unique index on LobbyID enforces at most one active roll per lobby;
 * replacing a roll deletes the old row and inserts a new one. Rolls are
 * never mutated after creation except for the CompletedByHost flag.
 *
 * ParticipantCount snapshots the number of distinct lobby participants at
 * roll creation so the host-completion threshold stays stable even when
 * membership changes mid-roll.
 */
type Roll struct {
	ID               uint                           `gorm:"primaryKey"`
	LobbyID          string                         `gorm:"size:50;not null;uniqueIndex"`
	TitleID          uint                           `gorm:"not null"`
	MapID            uint                           `gorm:"not null"`
	ChallengeID      uint                           `gorm:"not null"`
	Tags             datatypes.JSONType[RollTags]   `gorm:"type:jsonb"`
	FilterSettings   datatypes.JSONType[FilterSpec] `gorm:"type:jsonb"`
	ParticipantCount int                            `gorm:"default:1"`
	CompletedByHost  bool                           `gorm:"default:false"`
	CreatedAt        time.Time                      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Lobby     Lobby            `gorm:"foreignKey:LobbyID;constraint:OnDelete:CASCADE"`
	Challenge Challenge        `gorm:"foreignKey:ChallengeID"`
	Credits   []RollCompletion `gorm:"foreignKey:RollID;constraint:OnDelete:CASCADE"`
}

// NewRollTags wraps a tag struct for the jsonb column.
func NewRollTags(tags RollTags) datatypes.JSONType[RollTags] {
	return datatypes.NewJSONType(tags)
}

// NewFilterSettings wraps a filter spec for the jsonb column.
func NewFilterSettings(f FilterSpec) datatypes.JSONType[FilterSpec] {
	return datatypes.NewJSONType(f)
}

/*
 * 'RollCompletion' is the exactly-once credit record linking an account to
 * a roll it satisfied. The composite unique index is what makes duplicate
 * submissions idempotent even under concurrent double-submission.
 */
type RollCompletion struct {
	ID        uint      `gorm:"primaryKey"`
	RollID    uint      `gorm:"not null;uniqueIndex:idx_roll_completions_once"`
	Username  string    `gorm:"size:50;not null;uniqueIndex:idx_roll_completions_once"`
	XPAwarded int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	Roll    Roll          `gorm:"foreignKey:RollID"`
	Profile PlayerProfile `gorm:"foreignKey:Username"`
}
