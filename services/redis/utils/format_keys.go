package utils

import "fmt"

// FormatDiscardVoteKey builds the key holding a lobby's in-flight discard
// vote. Key format: "lobby:{id}:discard_vote"
func FormatDiscardVoteKey(lobbyID string) string {
	return fmt.Sprintf("lobby:%s:discard_vote", lobbyID)
}
