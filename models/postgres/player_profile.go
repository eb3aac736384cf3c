package postgres

import (
	"time"
)

/*
 * 'PlayerProfile' holds the game-side state of an account: the regenerating
 * mystery box tokens, the XP ledger and the lifetime completion counter.
 * It is referenced by User, Lobby, LobbyMember, Roll completions, RunLog
 * and PendingConfirmation.
 *
 * Token invariant: 0 <= BoxTokens <= TokenCap. LastTokenAt only moves
 * forward, one interval per credited token, and is only written by the
 * accrual routine and never by callers directly.
 */
type PlayerProfile struct {
	Username       string     `gorm:"primaryKey;size:50;not null"`
	UserIcon       int        `gorm:"default:0"`
	BoxTokens      int        `gorm:"default:0"`
	LastTokenAt    *time.Time
	TotalXP        int        `gorm:"default:0"`
	BoxCompletions int        `gorm:"default:0"`
	CreatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP"`

	HostedLobbies []Lobby               `gorm:"foreignKey:HostUsername"`
	Memberships   []LobbyMember         `gorm:"foreignKey:Username"`
	RunLogs       []RunLog              `gorm:"foreignKey:Username"`
	Pending       []PendingConfirmation `gorm:"foreignKey:TeammateUsername"`
}
