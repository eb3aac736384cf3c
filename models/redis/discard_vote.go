package redis

type VoteChoice string

const (
	VoteDiscard VoteChoice = "discard"
	VoteKeep    VoteChoice = "keep"
)

/*
 * 'DiscardVote' is the lobby-scoped consensus object for throwing away the
 * active roll. It lives in Redis, keyed by lobby, and resolves once every
 * current participant has voted: unanimous "discard" deletes the roll, any
 * "keep" leaves it in place. Either way the vote object is deleted on
 * resolution. RollID pins the vote to the roll it was opened against so a
 * stale vote never discards a newer roll.
 */
type DiscardVote struct {
	LobbyID   string                `json:"lobby_id"`
	RollID    uint                  `json:"roll_id"`
	Votes     map[string]VoteChoice `json:"votes"`
	CreatedAt int64                 `json:"created_at"` // Unix timestamp
}

// Resolved reports whether every listed participant has voted, and if so
// whether the vote carries (all chose discard).
func (v *DiscardVote) Resolved(participants []string) (done bool, discard bool) {
	discard = true
	for _, p := range participants {
		choice, ok := v.Votes[p]
		if !ok {
			return false, false
		}
		if choice != VoteDiscard {
			discard = false
		}
	}
	return true, discard
}
