package postgres

import (
	"time"
)

/*
 * 'User' is the authentication identity of a tracker account. It references
 * the PlayerProfile that holds all game-side state.
 */
type User struct {
	Email           string    `gorm:"primaryKey;size:100;not null"`
	ProfileUsername string    `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash    string    `gorm:"size:255;not null"`
	MemberSince     time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the player profile
	PlayerProfile PlayerProfile `gorm:"foreignKey:ProfileUsername;constraint:OnDelete:CASCADE"`
}
