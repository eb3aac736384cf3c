package roulette

import (
	"math/rand"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
)

// Draw is one roulette outcome: a uniformly sampled (title, map, challenge)
// triple plus whatever modifier tags fired.
type Draw struct {
	TitleID     uint
	MapID       uint
	ChallengeID uint
	Tags        models.RollTags
}

/*
 * 'Selector' samples mystery box rolls over the eligibility catalog. The
 * rand source is injected so tests can seed it; production wiring hands it
 * a time-seeded source.
 */
type Selector struct {
	Catalog Catalog
	Rand    *rand.Rand
}

func NewSelector(catalog Catalog, rng *rand.Rand) *Selector {
	return &Selector{Catalog: catalog, Rand: rng}
}

// Select draws one eligible challenge uniformly at random and then runs each
// applicable modifier family as an independent trial. A nil draw (no error)
// means the filters left nothing eligible; the caller must not charge
// anyone for it.
func (s *Selector) Select(filter models.FilterSpec) (*Draw, error) {
	eligible, err := s.Catalog.EligibleChallenges(filter)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	chosen := eligible[s.Rand.Intn(len(eligible))]
	draw := &Draw{
		TitleID:     chosen.TitleID,
		MapID:       chosen.MapID,
		ChallengeID: chosen.ID,
	}

	families, err := s.Catalog.ModifierFamilies(chosen.TitleID, chosen.MapID, chosen.ID)
	if err != nil {
		return nil, err
	}
	for _, family := range families {
		if s.Rand.Float64() >= family.Probability {
			continue
		}
		s.attach(&draw.Tags, family)
	}
	return draw, nil
}

// attach writes one successful family trial into the typed tag struct.
func (s *Selector) attach(tags *models.RollTags, family ModifierFamily) {
	switch family.Key {
	case game_constants.TagAlternateCurrency:
		v := true
		tags.AlternateCurrency = &v
	case game_constants.TagFirstRoomOnly:
		v := true
		tags.FirstRoomOnly = &v
	case game_constants.TagStartingLoadout:
		if len(family.Domain) == 0 {
			return
		}
		v := family.Domain[s.Rand.Intn(len(family.Domain))]
		tags.StartingLoadout = &v
	case game_constants.TagCursedRelics:
		tags.CursedRelics = s.nonEmptySubset(family.Domain)
	}
}

// nonEmptySubset picks a uniformly random non-empty subset of the domain,
// preserving domain order in the result.
func (s *Selector) nonEmptySubset(domain []string) []string {
	if len(domain) == 0 {
		return nil
	}
	for {
		var subset []string
		for _, member := range domain {
			if s.Rand.Intn(2) == 1 {
				subset = append(subset, member)
			}
		}
		if len(subset) > 0 {
			return subset
		}
	}
}
