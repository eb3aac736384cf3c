package lobby

import (
	"regexp"
	"testing"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/roulette"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// fakeLedger scripts token balances and records the spend/refund sequence
// so tests can assert the compensation path token by token.
type fakeLedger struct {
	balances  map[string]int
	failSpend map[string]bool
	spends    []string
	refunds   []string
}

func (l *fakeLedger) Accrue(username string) (int, error) {
	return l.balances[username], nil
}

func (l *fakeLedger) Spend(username string) (bool, error) {
	if l.failSpend[username] || l.balances[username] < 1 {
		return false, nil
	}
	l.balances[username]--
	l.spends = append(l.spends, username)
	return true, nil
}

func (l *fakeLedger) Refund(username string) error {
	l.balances[username]++
	l.refunds = append(l.refunds, username)
	return nil
}

type fakeSelector struct {
	draw *roulette.Draw
}

func (s *fakeSelector) Select(filter models.FilterSpec) (*roulette.Draw, error) {
	return s.draw, nil
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

// expectLobbyLookup scripts the host-lobby fetch plus the member list that
// every RollForLobby call starts with.
func expectLobbyLookup(mock sqlmock.Sqlmock, lobbyID, host string, members ...string) {
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "lobbies" WHERE host_username = $1 ORDER BY "lobbies"."id" LIMIT $2`)).
		WithArgs(host, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_username"}).AddRow(lobbyID, host))

	memberRows := sqlmock.NewRows([]string{"lobby_id", "username"})
	for _, m := range members {
		memberRows.AddRow(lobbyID, m)
	}
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "lobby_members" WHERE lobby_id = $1`)).
		WithArgs(lobbyID).
		WillReturnRows(memberRows)
}

func TestRollForLobbyFailsBeforeSpendingWhenShort(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyLookup(mock, "abc123", "host", "m1", "m2")

	ledger := &fakeLedger{balances: map[string]int{"host": 2, "m1": 0, "m2": 1}}
	svc := &RollService{DB: db, Ledger: ledger, Selector: &fakeSelector{}}

	_, err := svc.RollForLobby("host", models.FilterSpec{})

	var short *InsufficientTokensError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, []string{"m1"}, short.Short)
	// Precheck failure means nobody was touched
	assert.Empty(t, ledger.spends)
	assert.Empty(t, ledger.refunds)
	assert.Equal(t, 2, ledger.balances["host"])
	assert.Equal(t, 1, ledger.balances["m2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForLobbyCompensatesPartialSpend(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyLookup(mock, "abc123", "host", "m1", "m2")

	// m2 passes the precheck but loses the spend race
	ledger := &fakeLedger{
		balances:  map[string]int{"host": 1, "m1": 1, "m2": 1},
		failSpend: map[string]bool{"m2": true},
	}
	svc := &RollService{DB: db, Ledger: ledger, Selector: &fakeSelector{}}

	_, err := svc.RollForLobby("host", models.FilterSpec{})

	var short *InsufficientTokensError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, []string{"m2"}, short.Short)
	// The two successful spends were compensated in reverse order
	assert.Equal(t, []string{"host", "m1"}, ledger.spends)
	assert.Equal(t, []string{"m1", "host"}, ledger.refunds)
	assert.Equal(t, 1, ledger.balances["host"])
	assert.Equal(t, 1, ledger.balances["m1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForLobbyRefundsAllWhenNothingEligible(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyLookup(mock, "abc123", "host", "m1")

	ledger := &fakeLedger{balances: map[string]int{"host": 1, "m1": 2}}
	svc := &RollService{DB: db, Ledger: ledger, Selector: &fakeSelector{draw: nil}}

	_, err := svc.RollForLobby("host", models.FilterSpec{ExcludeSpeedruns: true})

	assert.ErrorIs(t, err, ErrNoEligibleChallenge)
	assert.Equal(t, []string{"host", "m1"}, ledger.spends)
	assert.Equal(t, []string{"m1", "host"}, ledger.refunds)
	assert.Equal(t, 1, ledger.balances["host"])
	assert.Equal(t, 2, ledger.balances["m1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForLobbyReplacesActiveRoll(t *testing.T) {
	db, mock := newMockDB(t)
	expectLobbyLookup(mock, "abc123", "host", "m1")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM "rolls" WHERE lobby_id = $1`)).
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "rolls"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	ledger := &fakeLedger{balances: map[string]int{"host": 2, "m1": 2}}
	draw := &roulette.Draw{TitleID: 10, MapID: 100, ChallengeID: 1}
	svc := &RollService{DB: db, Ledger: ledger, Selector: &fakeSelector{draw: draw}}

	roll, err := svc.RollForLobby("host", models.FilterSpec{ExcludeSpeedruns: true})

	require.NoError(t, err)
	assert.Equal(t, "abc123", roll.LobbyID)
	assert.Equal(t, uint(1), roll.ChallengeID)
	assert.Equal(t, 2, roll.ParticipantCount)
	assert.False(t, roll.CompletedByHost)
	// Both participants paid and kept their remaining token
	assert.Equal(t, 1, ledger.balances["host"])
	assert.Equal(t, 1, ledger.balances["m1"])
	assert.Empty(t, ledger.refunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollForLobbyRejectsNonHost(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "lobbies" WHERE host_username = $1 ORDER BY "lobbies"."id" LIMIT $2`)).
		WithArgs("member", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_username"}))

	svc := &RollService{DB: db, Ledger: &fakeLedger{}, Selector: &fakeSelector{}}

	_, err := svc.RollForLobby("member", models.FilterSpec{})
	assert.ErrorIs(t, err, ErrNotHost)
	assert.NoError(t, mock.ExpectationsWereMet())
}
