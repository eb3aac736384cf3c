package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'RunLog' is one submitted run record. Registered teammates named on a
 * submission are stored in Teammates and each gets a PendingConfirmation;
 * free-text names of unregistered players go to GuestTeammates and never
 * produce one.
 *
 * The modifier fields record how the run was actually played; the
 * reconciler compares them against the active roll's tags.
 */
type RunLog struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:50;not null;index:idx_run_logs_user"`
	LogType      string `gorm:"size:20;not null;default:'challenge'"`
	TitleID      uint   `gorm:"not null"`
	MapID        uint   `gorm:"not null;index:idx_run_logs_map"`
	ChallengeID  uint   `gorm:"not null"`
	RoundReached int    `gorm:"default:0"`

	// How the run was played
	AlternateCurrency bool                         `gorm:"default:false"`
	FirstRoomOnly     bool                         `gorm:"default:false"`
	StartingLoadout   string                       `gorm:"size:50"`
	CursedRelics      datatypes.JSONType[[]string] `gorm:"type:jsonb"`

	Teammates      datatypes.JSONType[[]string] `gorm:"type:jsonb"`
	GuestTeammates datatypes.JSONType[[]string] `gorm:"type:jsonb"`
	CreatedAt      time.Time                    `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Profile   PlayerProfile `gorm:"foreignKey:Username"`
	Challenge Challenge     `gorm:"foreignKey:ChallengeID"`
}

// RunLogTeammates is the jsonb column type for teammate name lists.
type RunLogTeammates = datatypes.JSONType[[]string]

// NewTeammates wraps a teammate list for the jsonb column.
func NewTeammates(names []string) RunLogTeammates {
	return datatypes.NewJSONType(names)
}
