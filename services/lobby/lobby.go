package lobby

import (
	"errors"
	"log"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"gorm.io/gorm"
)

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	// ErrAlreadyGrouped means the account sits in a lobby with other people
	// and has to leave it before the requested membership change.
	ErrAlreadyGrouped = errors.New("account already belongs to a grouped lobby")
)

// EnsureLobbyExists materializes the solo lobby for an otherwise
// unaffiliated account. Called at the end of every membership-changing
// transaction so that no account is ever left without a lobby.
func EnsureLobbyExists(tx *gorm.DB, username string) (*models.Lobby, error) {
	var hosted models.Lobby
	err := tx.Where("host_username = ?", username).First(&hosted).Error
	if err == nil {
		return &hosted, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var membership models.LobbyMember
	err = tx.Where("username = ?", username).First(&membership).Error
	if err == nil {
		var joined models.Lobby
		if err := tx.Where("id = ?", membership.LobbyID).First(&joined).Error; err != nil {
			return nil, err
		}
		return &joined, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	solo := models.Lobby{HostUsername: username}
	if err := tx.Create(&solo).Error; err != nil {
		return nil, err
	}
	return &solo, nil
}

// FindForUser resolves the one lobby an account currently sits in, creating
// its solo lobby lazily when none exists yet.
func FindForUser(db *gorm.DB, username string) (*models.Lobby, error) {
	var result *models.Lobby
	err := db.Transaction(func(tx *gorm.DB) error {
		lob, err := EnsureLobbyExists(tx, username)
		if err != nil {
			return err
		}
		result = lob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Participants returns the deduplicated host + member usernames of a lobby.
func Participants(db *gorm.DB, lob *models.Lobby) ([]string, error) {
	var members []models.LobbyMember
	if err := db.Where("lobby_id = ?", lob.ID).Find(&members).Error; err != nil {
		return nil, err
	}

	seen := map[string]bool{lob.HostUsername: true}
	participants := []string{lob.HostUsername}
	for _, m := range members {
		if seen[m.Username] {
			continue
		}
		seen[m.Username] = true
		participants = append(participants, m.Username)
	}
	return participants, nil
}

// Create gives the account a lobby to host. If the account already hosts a
// solo lobby this simply returns it; an account grouped with other people
// has to leave first.
func Create(db *gorm.DB, username string) (*models.Lobby, error) {
	var result *models.Lobby
	err := db.Transaction(func(tx *gorm.DB) error {
		var membership models.LobbyMember
		err := tx.Where("username = ?", username).First(&membership).Error
		if err == nil {
			return ErrAlreadyGrouped
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var hosted models.Lobby
		err = tx.Where("host_username = ?", username).First(&hosted).Error
		if err == nil {
			var count int64
			if err := tx.Model(&models.LobbyMember{}).Where("lobby_id = ?", hosted.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyGrouped
			}
			result = &hosted
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		lob := models.Lobby{HostUsername: username}
		if err := tx.Create(&lob).Error; err != nil {
			return err
		}
		result = &lob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Join moves an account into somebody else's lobby. The account's own solo
// lobby (and its roll) is dropped; it adopts the target lobby's roll
// instead. An account grouped with other people has to leave first.
func Join(db *gorm.DB, username string, lobbyID string) (*models.Lobby, error) {
	var result *models.Lobby
	err := db.Transaction(func(tx *gorm.DB) error {
		var target models.Lobby
		if err := tx.Where("id = ?", lobbyID).First(&target).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrLobbyNotFound
			}
			return err
		}
		if target.HostUsername == username {
			result = &target
			return nil
		}

		var membership models.LobbyMember
		err := tx.Where("username = ?", username).First(&membership).Error
		if err == nil {
			if membership.LobbyID == target.ID {
				result = &target
				return nil
			}
			return ErrAlreadyGrouped
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		// Dissolve the joiner's own lobby, which must be solo
		var hosted models.Lobby
		err = tx.Where("host_username = ?", username).First(&hosted).Error
		if err == nil {
			var count int64
			if err := tx.Model(&models.LobbyMember{}).Where("lobby_id = ?", hosted.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyGrouped
			}
			if err := tx.Where("lobby_id = ?", hosted.ID).Delete(&models.Roll{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&hosted).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		member := models.LobbyMember{LobbyID: target.ID, Username: username}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		result = &target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Leave takes an account out of its current lobby and stands up a fresh
// solo lobby for it, carrying the active roll over as a copy. When the host
// leaves, the whole lobby dissolves and every remaining member becomes
// independently solo (without a roll copy); members do not get auto-merged
// into a successor lobby.
func Leave(db *gorm.DB, username string) (*models.Lobby, error) {
	var result *models.Lobby
	err := db.Transaction(func(tx *gorm.DB) error {
		var membership models.LobbyMember
		err := tx.Where("username = ?", username).First(&membership).Error
		if err == nil {
			return leaveAsMember(tx, username, membership, &result)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var hosted models.Lobby
		err = tx.Where("host_username = ?", username).First(&hosted).Error
		if err == gorm.ErrRecordNotFound {
			// Nothing to leave, just make sure the solo lobby exists
			lob, err := EnsureLobbyExists(tx, username)
			if err != nil {
				return err
			}
			result = lob
			return nil
		}
		if err != nil {
			return err
		}
		return leaveAsHost(tx, username, hosted, &result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func leaveAsMember(tx *gorm.DB, username string, membership models.LobbyMember, result **models.Lobby) error {
	var roll models.Roll
	hasRoll := true
	if err := tx.Where("lobby_id = ?", membership.LobbyID).First(&roll).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		hasRoll = false
	}

	if err := tx.Where("lobby_id = ? AND username = ?", membership.LobbyID, username).
		Delete(&models.LobbyMember{}).Error; err != nil {
		return err
	}

	solo := models.Lobby{HostUsername: username}
	if err := tx.Create(&solo).Error; err != nil {
		return err
	}
	if hasRoll {
		if err := copyRoll(tx, &roll, solo.ID); err != nil {
			return err
		}
	}
	*result = &solo
	return nil
}

func leaveAsHost(tx *gorm.DB, username string, hosted models.Lobby, result **models.Lobby) error {
	var roll models.Roll
	hasRoll := true
	if err := tx.Where("lobby_id = ?", hosted.ID).First(&roll).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		hasRoll = false
	}

	var members []models.LobbyMember
	if err := tx.Where("lobby_id = ?", hosted.ID).Find(&members).Error; err != nil {
		return err
	}

	// Tear the old lobby down before any solo lobby is created so the
	// unique host index never trips
	if hasRoll {
		if err := tx.Where("lobby_id = ?", hosted.ID).Delete(&models.Roll{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("lobby_id = ?", hosted.ID).Delete(&models.LobbyMember{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&hosted).Error; err != nil {
		return err
	}

	solo := models.Lobby{HostUsername: username}
	if err := tx.Create(&solo).Error; err != nil {
		return err
	}
	if hasRoll {
		if err := copyRoll(tx, &roll, solo.ID); err != nil {
			return err
		}
	}

	for _, m := range members {
		if _, err := EnsureLobbyExists(tx, m.Username); err != nil {
			return err
		}
	}
	log.Printf("[LOBBY] host %s dissolved lobby %s, %d member(s) now solo", username, hosted.ID, len(members))

	*result = &solo
	return nil
}

// copyRoll clones an active roll into a departer's fresh solo lobby. Tags
// and filter settings carry over verbatim; the completion flag resets and
// the participant snapshot is the solo departer alone.
func copyRoll(tx *gorm.DB, roll *models.Roll, lobbyID string) error {
	clone := models.Roll{
		LobbyID:          lobbyID,
		TitleID:          roll.TitleID,
		MapID:            roll.MapID,
		ChallengeID:      roll.ChallengeID,
		Tags:             roll.Tags,
		FilterSettings:   roll.FilterSettings,
		ParticipantCount: 1,
		CompletedByHost:  false,
	}
	return tx.Create(&clone).Error
}
