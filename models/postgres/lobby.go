package postgres

import (
	"math/rand"
	"time"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"

	"gorm.io/gorm"
)

/*
 * 'Lobby' groups a host plus zero or more members around at most one active
 * Roll. An account hosts at most one lobby (unique index on HostUsername)
 * and is a member of at most one (unique index on LobbyMember.Username);
 * hosting and membership are mutually exclusive for a given account.
 */
type Lobby struct {
	ID           string    `gorm:"primaryKey;size:50;not null"`
	HostUsername string    `gorm:"size:50;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Host    PlayerProfile  `gorm:"foreignKey:HostUsername"`
	Members []*LobbyMember `gorm:"foreignKey:LobbyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Roll    *Roll          `gorm:"foreignKey:LobbyID;constraint:OnDelete:CASCADE;"`
}

/*
 * 'LobbyMember' relates a non-host participant to the lobby it sits in.
 * The unique index on Username is what makes "member of exactly one lobby"
 * hold at the database level.
 */
type LobbyMember struct {
	// NOTE: composite primary key definition
	LobbyID  string    `gorm:"primaryKey;size:50;not null"`
	Username string    `gorm:"primaryKey;size:50;not null;uniqueIndex"`
	JoinedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	Lobby   Lobby         `gorm:"foreignKey:LobbyID"`
	Profile PlayerProfile `gorm:"foreignKey:Username"`
}

// Random lobby code generation, short enough to read out over voice chat
const lobbyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateLobbyID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = lobbyCharset[rand.Intn(len(lobbyCharset))]
	}
	return string(b)
}

// BeforeCreate assigns a fresh unique code unless the caller already set one.
func (l *Lobby) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID != "" {
		return nil
	}
	for {
		newID := generateLobbyID(game_constants.LobbyCodeLength)
		var existing Lobby
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				l.ID = newID
				return nil
			}
			return err
		}
		// Collision, loop again for a new code
	}
}
