package pending

import (
	"errors"
	"log"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"gorm.io/gorm"
)

// ErrNotAddressedToYou means the pending confirmation exists but names a
// different teammate.
var ErrNotAddressedToYou = errors.New("pending confirmation is addressed to another account")

// CreateForTeammates opens one confirmation row per registered teammate
// named on a freshly submitted run. Unregistered names never reach this
// function; they stay as free text on the run itself.
func CreateForTeammates(tx *gorm.DB, run *models.RunLog) ([]models.PendingConfirmation, error) {
	teammates := run.Teammates.Data()
	if len(teammates) == 0 {
		return nil, nil
	}

	created := make([]models.PendingConfirmation, 0, len(teammates))
	for _, teammate := range teammates {
		if teammate == run.Username {
			continue
		}
		pc := models.PendingConfirmation{
			SourceLogID:       run.ID,
			SubmitterUsername: run.Username,
			TeammateUsername:  teammate,
			Status:            game_constants.PendingStatusPending,
		}
		if err := tx.Create(&pc).Error; err != nil {
			return nil, err
		}
		created = append(created, pc)
	}
	return created, nil
}

// SplitRegistered separates the teammate names that belong to registered
// accounts from free-text guest names.
func SplitRegistered(db *gorm.DB, names []string) (registered []string, guests []string, err error) {
	if len(names) == 0 {
		return nil, nil, nil
	}

	var profiles []models.PlayerProfile
	if err := db.Where("username IN (?)", names).Find(&profiles).Error; err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		known[p.Username] = true
	}

	for _, name := range names {
		if known[name] {
			registered = append(registered, name)
		} else {
			guests = append(guests, name)
		}
	}
	return registered, guests, nil
}

// Confirm consumes a pending confirmation: the source run is copied under
// the confirming teammate's own account with the squad list rewritten so it
// reads symmetrically from their side, and the row flips to CONFIRMED.
// Confirming an already-confirmed row is a no-op, not an error; the copied
// run comes back nil in that case.
func Confirm(db *gorm.DB, pendingID uint, username string) (*models.RunLog, error) {
	var copied *models.RunLog
	err := db.Transaction(func(tx *gorm.DB) error {
		var pc models.PendingConfirmation
		if err := tx.Where("id = ?", pendingID).First(&pc).Error; err != nil {
			return err
		}
		if pc.TeammateUsername != username {
			return ErrNotAddressedToYou
		}
		if pc.Status == game_constants.PendingStatusConfirmed {
			return nil
		}

		var source models.RunLog
		if err := tx.Where("id = ?", pc.SourceLogID).First(&source).Error; err != nil {
			return err
		}

		clone := models.RunLog{
			Username:          username,
			LogType:           source.LogType,
			TitleID:           source.TitleID,
			MapID:             source.MapID,
			ChallengeID:       source.ChallengeID,
			RoundReached:      source.RoundReached,
			AlternateCurrency: source.AlternateCurrency,
			FirstRoomOnly:     source.FirstRoomOnly,
			StartingLoadout:   source.StartingLoadout,
			CursedRelics:      source.CursedRelics,
			Teammates:         rewriteTeammates(source, username),
			GuestTeammates:    source.GuestTeammates,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}

		err := tx.Model(&models.PendingConfirmation{}).
			Where("id = ?", pc.ID).
			UpdateColumn("status", game_constants.PendingStatusConfirmed).Error
		if err != nil {
			return err
		}

		copied = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	if copied != nil {
		log.Printf("[PENDING] %s confirmed pending run %d, copy created as run %d", username, pendingID, copied.ID)
	}
	return copied, nil
}

// rewriteTeammates swaps the confirmer out of the squad list and the
// original submitter in, so the copied run reads the same squad from the
// new owner's side.
func rewriteTeammates(source models.RunLog, confirmer string) (out models.RunLogTeammates) {
	names := []string{source.Username}
	for _, t := range source.Teammates.Data() {
		if t != confirmer && t != source.Username {
			names = append(names, t)
		}
	}
	return models.NewTeammates(names)
}
