package roulette

import (
	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"gorm.io/gorm"
)

// FamilyKind tells the selector what shape of value a modifier family draws.
type FamilyKind int

const (
	FamilyBool FamilyKind = iota
	FamilyEnum
	FamilySubset
)

/*
 * 'ModifierFamily' describes one optional handicap a title/map/challenge
 * combination supports: the tag key it writes, the odds of it firing at all
 * and, for enum/subset families, the value domain it draws from. Families
 * are evaluated independently, so none of them exclude each other.
 */
type ModifierFamily struct {
	Key         string
	Probability float64
	Kind        FamilyKind
	Domain      []string
}

// Catalog is the read-only eligibility rule table the selector runs over.
type Catalog interface {
	EligibleChallenges(filter models.FilterSpec) ([]models.Challenge, error)
	ModifierFamilies(titleID, mapID, challengeID uint) ([]ModifierFamily, error)
}

// GormCatalog answers catalog queries straight from the seeded tables.
type GormCatalog struct {
	DB *gorm.DB
}

// EligibleChallenges materializes the eligible set by applying the three
// recognized filters as independent predicates over the active catalog.
func (c *GormCatalog) EligibleChallenges(filter models.FilterSpec) ([]models.Challenge, error) {
	q := c.DB.Where("active = ?", true)
	if len(filter.ExcludedTitleIDs) > 0 {
		q = q.Where("title_id NOT IN (?)", filter.ExcludedTitleIDs)
	}
	if filter.ExcludeSpeedruns {
		q = q.Where("is_speedrun = ?", false)
	}
	if filter.MaxRound != nil {
		q = q.Where("min_round <= ?", *filter.MaxRound)
	}

	var challenges []models.Challenge
	if err := q.Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

// ModifierFamilies derives the applicable families from the catalog flags of
// the chosen title, map and challenge.
func (c *GormCatalog) ModifierFamilies(titleID, mapID, challengeID uint) ([]ModifierFamily, error) {
	var title models.GameTitle
	if err := c.DB.Where("id = ?", titleID).First(&title).Error; err != nil {
		return nil, err
	}
	var gameMap models.GameMap
	if err := c.DB.Where("id = ?", mapID).First(&gameMap).Error; err != nil {
		return nil, err
	}
	var challenge models.Challenge
	if err := c.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		return nil, err
	}

	var families []ModifierFamily
	if title.HasAlternateCurrency {
		families = append(families, ModifierFamily{
			Key:         game_constants.TagAlternateCurrency,
			Probability: game_constants.AlternateCurrencyProb,
			Kind:        FamilyBool,
		})
	}
	if loadouts := title.StartingLoadouts.Data(); len(loadouts) > 0 {
		families = append(families, ModifierFamily{
			Key:         game_constants.TagStartingLoadout,
			Probability: game_constants.StartingLoadoutProb,
			Kind:        FamilyEnum,
			Domain:      loadouts,
		})
	}
	if gameMap.HasFirstRoom {
		families = append(families, ModifierFamily{
			Key:         game_constants.TagFirstRoomOnly,
			Probability: game_constants.FirstRoomOnlyProb,
			Kind:        FamilyBool,
		})
	}
	if challenge.SupportsCursedRelics {
		families = append(families, ModifierFamily{
			Key:         game_constants.TagCursedRelics,
			Probability: game_constants.CursedRelicsProb,
			Kind:        FamilySubset,
			Domain:      game_constants.CursedRelicSet,
		})
	}
	return families, nil
}
