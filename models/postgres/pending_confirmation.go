package postgres

import (
	"time"
)

/*
 * 'PendingConfirmation' is the co-op hand-off row: it lets a teammate named
 * on somebody else's run independently confirm participation and receive
 * their own copy of the run. Confirming is terminal; a second confirm of
 * the same row is a no-op guarded by the status check, never an error.
 * Rows never expire on their own.
 */
type PendingConfirmation struct {
	ID                uint      `gorm:"primaryKey"`
	SourceLogID       uint      `gorm:"not null;index:idx_pending_source"`
	SubmitterUsername string    `gorm:"size:50;not null"`
	TeammateUsername  string    `gorm:"size:50;not null;index:idx_pending_teammate"`
	Status            string    `gorm:"size:20;not null;default:'PENDING'"`
	CreatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	SourceLog RunLog        `gorm:"foreignKey:SourceLogID;constraint:OnDelete:CASCADE"`
	Submitter PlayerProfile `gorm:"foreignKey:SubmitterUsername"`
	Teammate  PlayerProfile `gorm:"foreignKey:TeammateUsername"`
}
