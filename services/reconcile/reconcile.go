package reconcile

import (
	"log"
	"sort"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	lobby_service "github.com/raymiesegars/cod-zombies-tracker-sub003/services/lobby"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result reports what a reconciliation attempt did. Credited false with a
// zero XP is not an error: the run simply did not match, or credit was
// already given.
type Result struct {
	Credited bool `json:"credited"`
	XP       int  `json:"xp"`
}

// TagsMatch applies the wildcard matching predicate: every tag present on
// the roll must equal the run's corresponding field, and absent tags accept
// anything. A run played harder than assigned can therefore still match; a
// run played differently cannot.
func TagsMatch(tags models.RollTags, run *models.RunLog) bool {
	if tags.AlternateCurrency != nil && *tags.AlternateCurrency != run.AlternateCurrency {
		return false
	}
	if tags.FirstRoomOnly != nil && *tags.FirstRoomOnly != run.FirstRoomOnly {
		return false
	}
	if tags.StartingLoadout != nil && *tags.StartingLoadout != run.StartingLoadout {
		return false
	}
	if tags.CursedRelics != nil && !sameRelicSet(tags.CursedRelics, run.CursedRelics.Data()) {
		return false
	}
	return true
}

func sameRelicSet(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	a := append([]string(nil), want...)
	b := append([]string(nil), got...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reconcile tests a submitted run against the active roll of the account's
// lobby and awards credit at most once per (account, roll). The unique
// completion index makes concurrent duplicate submissions collapse to a
// single credit; the duplicate sees an idempotent no-op, never an error.
func Reconcile(db *gorm.DB, username string, run *models.RunLog) (*Result, error) {
	lob, err := lobby_service.FindForUser(db, username)
	if err != nil {
		return nil, err
	}

	var roll models.Roll
	if err := db.Where("lobby_id = ?", lob.ID).First(&roll).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &Result{}, nil
		}
		return nil, err
	}

	if roll.TitleID != run.TitleID || roll.MapID != run.MapID || roll.ChallengeID != run.ChallengeID {
		return &Result{}, nil
	}
	if !TagsMatch(roll.Tags.Data(), run) {
		// Played a different variant than assigned, nothing to credit
		return &Result{}, nil
	}

	xp := ComputeXP(roll.FilterSettings.Data(), run.RoundReached)

	result := &Result{}
	err = db.Transaction(func(tx *gorm.DB) error {
		completion := models.RollCompletion{
			RollID:    roll.ID,
			Username:  username,
			XPAwarded: xp,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already credited for this roll
			return nil
		}

		err := tx.Model(&models.PlayerProfile{}).
			Where("username = ?", username).
			Updates(map[string]interface{}{
				"total_xp":        gorm.Expr("total_xp + ?", xp),
				"box_completions": gorm.Expr("box_completions + 1"),
			}).Error
		if err != nil {
			return err
		}

		var credited int64
		if err := tx.Model(&models.RollCompletion{}).Where("roll_id = ?", roll.ID).Count(&credited).Error; err != nil {
			return err
		}
		if credited >= int64(roll.ParticipantCount) {
			err := tx.Model(&models.Roll{}).
				Where("id = ?", roll.ID).
				UpdateColumn("completed_by_host", true).Error
			if err != nil {
				return err
			}
			log.Printf("[RECONCILE] roll %d fully completed by all %d participant(s)", roll.ID, roll.ParticipantCount)
		}

		result.Credited = true
		result.XP = xp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
