package postgres

import (
	"gorm.io/datatypes"
)

/*
 * Static eligibility catalog: which titles, maps and challenge types exist
 * and which optional modifier families apply to each. These tables are
 * seeded externally and read-only at runtime; the roulette selector only
 * ever queries them.
 */

type GameTitle struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null;uniqueIndex"`
	// Title-level modifier families
	HasAlternateCurrency bool                         `gorm:"default:false"`
	StartingLoadouts     datatypes.JSONType[[]string] `gorm:"type:jsonb"`

	Maps       []GameMap   `gorm:"foreignKey:TitleID"`
	Challenges []Challenge `gorm:"foreignKey:TitleID"`
}

type GameMap struct {
	ID      uint   `gorm:"primaryKey"`
	TitleID uint   `gorm:"not null;index:idx_game_maps_title"`
	Name    string `gorm:"size:100;not null"`
	// Map-level modifier family: supports a first-room sub-variant
	HasFirstRoom bool `gorm:"default:false"`

	Title GameTitle `gorm:"foreignKey:TitleID"`
}

/*
 * 'Challenge' is one rollable (title, map, challenge type) entry. MinRound
 * is the lowest round/tier that qualifies for this challenge type; the
 * max-round roll filter drops entries whose MinRound exceeds the bound.
 */
type Challenge struct {
	ID         uint   `gorm:"primaryKey"`
	TitleID    uint   `gorm:"not null;index:idx_challenges_title"`
	MapID      uint   `gorm:"not null;index:idx_challenges_map"`
	Name       string `gorm:"size:100;not null"`
	IsSpeedrun bool   `gorm:"default:false;index:idx_challenges_speedrun"`
	MinRound   int    `gorm:"default:0"`
	// Challenge-level modifier family: cursed-run overlay with a relic subset
	SupportsCursedRelics bool `gorm:"default:false"`
	Active               bool `gorm:"default:true;index:idx_challenges_active"`

	Title GameTitle `gorm:"foreignKey:TitleID"`
	Map   GameMap   `gorm:"foreignKey:MapID"`
}
