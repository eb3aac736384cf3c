package roulette

import (
	"math/rand"
	"testing"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory rule table for selector tests.
type fakeCatalog struct {
	challenges []models.Challenge
	families   map[uint][]ModifierFamily
}

func (f *fakeCatalog) EligibleChallenges(filter models.FilterSpec) ([]models.Challenge, error) {
	excluded := make(map[uint]bool)
	for _, id := range filter.ExcludedTitleIDs {
		excluded[id] = true
	}
	var out []models.Challenge
	for _, ch := range f.challenges {
		if !ch.Active || excluded[ch.TitleID] {
			continue
		}
		if filter.ExcludeSpeedruns && ch.IsSpeedrun {
			continue
		}
		if filter.MaxRound != nil && ch.MinRound > *filter.MaxRound {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

func (f *fakeCatalog) ModifierFamilies(titleID, mapID, challengeID uint) ([]ModifierFamily, error) {
	return f.families[challengeID], nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		challenges: []models.Challenge{
			{ID: 1, TitleID: 10, MapID: 100, Name: "Round 30", MinRound: 30, Active: true},
			{ID: 2, TitleID: 10, MapID: 100, Name: "Round 50 speedrun", MinRound: 50, IsSpeedrun: true, Active: true},
			{ID: 3, TitleID: 20, MapID: 200, Name: "Round 100", MinRound: 100, Active: true},
			{ID: 4, TitleID: 20, MapID: 201, Name: "Retired", MinRound: 10, Active: false},
		},
		families: map[uint][]ModifierFamily{},
	}
}

func TestSelectEmptyEligibleSetReturnsNil(t *testing.T) {
	selector := NewSelector(testCatalog(), rand.New(rand.NewSource(1)))

	maxRound := 5
	draw, err := selector.Select(models.FilterSpec{MaxRound: &maxRound})
	assert.NoError(t, err)
	assert.Nil(t, draw)
}

func TestSelectHonorsFilters(t *testing.T) {
	selector := NewSelector(testCatalog(), rand.New(rand.NewSource(7)))
	maxRound := 60

	for i := 0; i < 200; i++ {
		draw, err := selector.Select(models.FilterSpec{
			ExcludedTitleIDs: []uint{20},
			ExcludeSpeedruns: true,
			MaxRound:         &maxRound,
		})
		require.NoError(t, err)
		require.NotNil(t, draw)
		// Only challenge 1 survives all three filters
		assert.Equal(t, uint(1), draw.ChallengeID)
		assert.Equal(t, uint(10), draw.TitleID)
		assert.Equal(t, uint(100), draw.MapID)
	}
}

func TestSelectSamplesAllEligibleChallenges(t *testing.T) {
	selector := NewSelector(testCatalog(), rand.New(rand.NewSource(42)))

	seen := make(map[uint]int)
	for i := 0; i < 600; i++ {
		draw, err := selector.Select(models.FilterSpec{})
		require.NoError(t, err)
		require.NotNil(t, draw)
		seen[draw.ChallengeID]++
	}

	// Every active challenge shows up, the retired one never does
	assert.Contains(t, seen, uint(1))
	assert.Contains(t, seen, uint(2))
	assert.Contains(t, seen, uint(3))
	assert.NotContains(t, seen, uint(4))
	// Rough uniformity: nothing hogs the wheel
	for id, count := range seen {
		assert.Greater(t, count, 100, "challenge %d drew %d of 600", id, count)
	}
}

func TestSelectAttachesTagsIndependently(t *testing.T) {
	catalog := testCatalog()
	catalog.families[1] = []ModifierFamily{
		{Key: game_constants.TagAlternateCurrency, Probability: 1.0, Kind: FamilyBool},
		{Key: game_constants.TagStartingLoadout, Probability: 1.0, Kind: FamilyEnum, Domain: []string{"pistol_start", "knife_only"}},
		{Key: game_constants.TagCursedRelics, Probability: 1.0, Kind: FamilySubset, Domain: game_constants.CursedRelicSet},
		{Key: game_constants.TagFirstRoomOnly, Probability: 0.0, Kind: FamilyBool},
	}
	selector := NewSelector(catalog, rand.New(rand.NewSource(3)))
	maxRound := 40

	draw, err := selector.Select(models.FilterSpec{MaxRound: &maxRound, ExcludeSpeedruns: true})
	require.NoError(t, err)
	require.NotNil(t, draw)
	require.Equal(t, uint(1), draw.ChallengeID)

	// Probability-1 families all fired, the probability-0 one never can
	require.NotNil(t, draw.Tags.AlternateCurrency)
	assert.True(t, *draw.Tags.AlternateCurrency)
	require.NotNil(t, draw.Tags.StartingLoadout)
	assert.Contains(t, []string{"pistol_start", "knife_only"}, *draw.Tags.StartingLoadout)
	assert.NotEmpty(t, draw.Tags.CursedRelics)
	assert.Nil(t, draw.Tags.FirstRoomOnly)
}

func TestNonEmptySubsetNeverEmpty(t *testing.T) {
	selector := NewSelector(testCatalog(), rand.New(rand.NewSource(9)))

	for i := 0; i < 100; i++ {
		subset := selector.nonEmptySubset(game_constants.CursedRelicSet)
		assert.NotEmpty(t, subset)
		assert.LessOrEqual(t, len(subset), len(game_constants.CursedRelicSet))
	}
}
