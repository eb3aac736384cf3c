package reconcile

import (
	"regexp"
	"testing"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestTagsMatchWildcard(t *testing.T) {
	run := &models.RunLog{
		AlternateCurrency: true,
		FirstRoomOnly:     false,
		StartingLoadout:   "pistol_start",
		CursedRelics:      datatypes.NewJSONType([]string{"iron_vow", "blood_debt"}),
	}

	// Empty tags accept any run for the challenge
	assert.True(t, TagsMatch(models.RollTags{}, run))

	// Matching constraints pass
	assert.True(t, TagsMatch(models.RollTags{
		AlternateCurrency: boolPtr(true),
		StartingLoadout:   strPtr("pistol_start"),
	}, run))

	// Relic sets compare as sets, order does not matter
	assert.True(t, TagsMatch(models.RollTags{
		CursedRelics: []string{"blood_debt", "iron_vow"},
	}, run))
}

func TestTagsMatchRejectsMismatches(t *testing.T) {
	run := &models.RunLog{
		AlternateCurrency: false,
		StartingLoadout:   "knife_only",
		CursedRelics:      datatypes.NewJSONType([]string{"iron_vow"}),
	}

	assert.False(t, TagsMatch(models.RollTags{AlternateCurrency: boolPtr(true)}, run))
	assert.False(t, TagsMatch(models.RollTags{FirstRoomOnly: boolPtr(true)}, run))
	assert.False(t, TagsMatch(models.RollTags{StartingLoadout: strPtr("pistol_start")}, run))
	assert.False(t, TagsMatch(models.RollTags{CursedRelics: []string{"iron_vow", "hollow_eye"}}, run))
	// A run with relics the roll never asked for still matches (absent key)
	assert.True(t, TagsMatch(models.RollTags{}, run))
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gdb, mock
}

// expectLobbyAndRoll scripts the lobby resolution plus active-roll fetch
// that opens every reconcile call.
func expectLobbyAndRoll(mock sqlmock.Sqlmock, username, lobbyID string, rollRows *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "lobbies" WHERE host_username = $1 ORDER BY "lobbies"."id" LIMIT $2`)).
		WithArgs(username, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_username"}).AddRow(lobbyID, username))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "rolls" WHERE lobby_id = $1 ORDER BY "rolls"."id" LIMIT $2`)).
		WithArgs(lobbyID, 1).
		WillReturnRows(rollRows)
}

func activeRollRows(rollID uint, participants int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "lobby_id", "title_id", "map_id", "challenge_id",
		"tags", "filter_settings", "participant_count", "completed_by_host",
	}).AddRow(rollID, "abc123", 10, 100, 1, []byte(`{}`), []byte(`{}`), participants, false)
}

func TestReconcileCreditsMatchingRun(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyAndRoll(mock, "slayer40", "abc123", activeRollRows(7, 2))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "roll_completions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "player_profiles" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT count(*) FROM "roll_completions" WHERE roll_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	run := &models.RunLog{
		Username:     "slayer40",
		TitleID:      10,
		MapID:        100,
		ChallengeID:  1,
		RoundReached: 40,
	}
	result, err := Reconcile(db, "slayer40", run)

	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, 70, result.XP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileDuplicateIsIdempotentNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyAndRoll(mock, "slayer40", "abc123", activeRollRows(7, 2))

	mock.ExpectBegin()
	// ON CONFLICT DO NOTHING hits the existing (account, roll) row
	mock.ExpectQuery(`INSERT INTO "roll_completions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	run := &models.RunLog{
		Username:     "slayer40",
		TitleID:      10,
		MapID:        100,
		ChallengeID:  1,
		RoundReached: 40,
	}
	result, err := Reconcile(db, "slayer40", run)

	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.Zero(t, result.XP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileIgnoresDifferentChallenge(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyAndRoll(mock, "slayer40", "abc123", activeRollRows(7, 2))

	run := &models.RunLog{
		Username:     "slayer40",
		TitleID:      10,
		MapID:        100,
		ChallengeID:  99,
		RoundReached: 40,
	}
	result, err := Reconcile(db, "slayer40", run)

	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileMarksHostCompletionAtThreshold(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyAndRoll(mock, "slayer40", "abc123", activeRollRows(7, 2))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "roll_completions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "player_profiles" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second distinct completion reaches the snapshot participant count
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT count(*) FROM "roll_completions" WHERE roll_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "rolls" SET "completed_by_host"=$1 WHERE id = $2`)).
		WithArgs(true, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run := &models.RunLog{
		Username:     "slayer40",
		TitleID:      10,
		MapID:        100,
		ChallengeID:  1,
		RoundReached: 25,
	}
	result, err := Reconcile(db, "slayer40", run)

	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}
