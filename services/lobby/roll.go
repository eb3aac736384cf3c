package lobby

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/roulette"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/tokens"

	"gorm.io/gorm"
)

var (
	ErrNotHost             = errors.New("only the lobby host can roll the mystery box")
	ErrNoEligibleChallenge = errors.New("no challenge matches the active filters")
)

// InsufficientTokensError reports which participants could not cover the
// one-token stake of a group roll. Nobody is charged when it is returned.
type InsufficientTokensError struct {
	Short []string
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens for: %s", strings.Join(e.Short, ", "))
}

// TokenLedger is the per-account token operations the roll saga needs.
type TokenLedger interface {
	Accrue(username string) (int, error)
	Spend(username string) (bool, error)
	Refund(username string) error
}

// ChallengeSelector draws a roll for a filter spec; a nil draw means the
// filters left nothing eligible.
type ChallengeSelector interface {
	Select(filter models.FilterSpec) (*roulette.Draw, error)
}

// DBTokenLedger is the production TokenLedger backed by the tokens service.
type DBTokenLedger struct {
	DB *gorm.DB
}

func (l DBTokenLedger) Accrue(username string) (int, error) {
	state, err := tokens.Accrue(l.DB, username, time.Now())
	if err != nil {
		return 0, err
	}
	return state.Tokens, nil
}

func (l DBTokenLedger) Spend(username string) (bool, error) {
	return tokens.Spend(l.DB, username)
}

func (l DBTokenLedger) Refund(username string) error {
	return tokens.Refund(l.DB, username)
}

/*
 * 'RollService' runs the group spend-and-roll: every participant stakes one
 * token, then the roulette draws the lobby's next roll. The spend pass is a
 * saga with compensation rather than one cross-account lock, so two lobbies
 * spending concurrently can never deadlock each other; any failure after a
 * partial spend refunds exactly what this attempt took.
 */
type RollService struct {
	DB       *gorm.DB
	Ledger   TokenLedger
	Selector ChallengeSelector
}

// RollForLobby charges every participant one token and replaces the lobby's
// active roll with a fresh draw. All-or-nothing: on any failure every token
// spent by this attempt is refunded before the error is returned.
func (s *RollService) RollForLobby(hostUsername string, filter models.FilterSpec) (*models.Roll, error) {
	var lob models.Lobby
	if err := s.DB.Where("host_username = ?", hostUsername).First(&lob).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotHost
		}
		return nil, err
	}

	participants, err := Participants(s.DB, &lob)
	if err != nil {
		return nil, err
	}

	// Lazy accrual first, then the precheck, so nobody gets charged when a
	// participant is short
	var short []string
	for _, p := range participants {
		count, err := s.Ledger.Accrue(p)
		if err != nil {
			return nil, err
		}
		if count < 1 {
			short = append(short, p)
		}
	}
	if len(short) > 0 {
		return nil, &InsufficientTokensError{Short: short}
	}

	// Forward pass: collect compensations as we go. A spend can still lose
	// a race against a concurrent spend elsewhere, in which case everything
	// taken so far is handed back in reverse order.
	var spent []string
	rollback := func() {
		for i := len(spent) - 1; i >= 0; i-- {
			if err := s.Ledger.Refund(spent[i]); err != nil {
				log.Printf("[SAGA-REFUND-ERROR] refunding token to %s: %v", spent[i], err)
			}
		}
	}
	for _, p := range participants {
		ok, err := s.Ledger.Spend(p)
		if err != nil {
			rollback()
			return nil, err
		}
		if !ok {
			rollback()
			return nil, &InsufficientTokensError{Short: []string{p}}
		}
		spent = append(spent, p)
	}

	draw, err := s.Selector.Select(filter)
	if err != nil {
		rollback()
		return nil, err
	}
	if draw == nil {
		// This attempt never consumed a real roll, so it costs nothing
		rollback()
		return nil, ErrNoEligibleChallenge
	}

	roll := models.Roll{
		LobbyID:          lob.ID,
		TitleID:          draw.TitleID,
		MapID:            draw.MapID,
		ChallengeID:      draw.ChallengeID,
		Tags:             models.NewRollTags(draw.Tags),
		FilterSettings:   models.NewFilterSettings(filter),
		ParticipantCount: len(participants),
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Replace-on-create keeps at most one active roll per lobby
		if err := tx.Where("lobby_id = ?", lob.ID).Delete(&models.Roll{}).Error; err != nil {
			return err
		}
		return tx.Create(&roll).Error
	})
	if err != nil {
		rollback()
		return nil, err
	}

	log.Printf("[ROLL] lobby %s rolled challenge %d (%d participant(s) staked a token)",
		lob.ID, roll.ChallengeID, len(participants))
	return &roll, nil
}
