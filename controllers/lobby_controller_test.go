package controllers

import (
	"errors"
	"testing"

	redis_models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/redis"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscardVoteSummaryNoVoteOpen(t *testing.T) {
	summary, err := discardVoteSummary(nil, redis.ErrNotFound, 7, 3)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestDiscardVoteSummarySurfacesOpenVote(t *testing.T) {
	vote := &redis_models.DiscardVote{
		LobbyID: "ABC123",
		RollID:  7,
		Votes:   map[string]redis_models.VoteChoice{"raymie": redis_models.VoteDiscard},
	}

	summary, err := discardVoteSummary(vote, nil, 7, 3)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, gin.H{"votes": vote.Votes, "needed": 3}, summary)
}

func TestDiscardVoteSummarySkipsStaleVote(t *testing.T) {
	vote := &redis_models.DiscardVote{
		LobbyID: "ABC123",
		RollID:  6,
		Votes:   map[string]redis_models.VoteChoice{"raymie": redis_models.VoteDiscard},
	}

	// Pinned to a replaced roll, so it never leaks into the live roll's info
	summary, err := discardVoteSummary(vote, nil, 7, 3)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestDiscardVoteSummaryPropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := discardVoteSummary(nil, boom, 7, 3)
	assert.ErrorIs(t, err, boom)
}
