package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redis_models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/redis"
	redis_utils "github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis/utils"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the requested key does not exist.
var ErrNotFound = redis.Nil

// How many optimistic-lock rounds a ballot gets before giving up.
const castVoteRetries = 5

// RedisClient handles Redis operations
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(addr string, db int) *RedisClient {
	var client *redis.Client
	if addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}
	return &RedisClient{
		Client: client,
		Ctx:    context.Background(),
	}
}

// GetDiscardVote retrieves a lobby's in-flight discard vote, or ErrNotFound
// when no vote is open.
func (rc *RedisClient) GetDiscardVote(lobbyID string) (*redis_models.DiscardVote, error) {
	key := redis_utils.FormatDiscardVoteKey(lobbyID)
	data, err := rc.Client.Get(rc.Ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var vote redis_models.DiscardVote
	if err := json.Unmarshal(data, &vote); err != nil {
		return nil, fmt.Errorf("error unmarshaling discard vote: %v", err)
	}
	return &vote, nil
}

// mergeDiscardVote applies one ballot on top of whatever vote state is
// currently stored. Missing, unreadable or stale state (a vote pinned to a
// different roll) starts a fresh vote against the live roll.
func mergeDiscardVote(data []byte, lobbyID string, rollID uint, username string, choice redis_models.VoteChoice, now int64) *redis_models.DiscardVote {
	vote := &redis_models.DiscardVote{
		LobbyID:   lobbyID,
		RollID:    rollID,
		Votes:     map[string]redis_models.VoteChoice{},
		CreatedAt: now,
	}
	if len(data) > 0 {
		var stored redis_models.DiscardVote
		if err := json.Unmarshal(data, &stored); err == nil && stored.RollID == rollID {
			if stored.Votes == nil {
				stored.Votes = map[string]redis_models.VoteChoice{}
			}
			vote = &stored
		}
	}
	vote.Votes[username] = choice
	return vote
}

// CastDiscardVote records one participant's ballot and returns the merged
// vote. The key is WATCHed so two simultaneous ballots cannot overwrite each
// other; the loser of the race re-reads and re-applies its ballot.
func (rc *RedisClient) CastDiscardVote(lobbyID string, rollID uint, username string, choice redis_models.VoteChoice) (*redis_models.DiscardVote, error) {
	key := redis_utils.FormatDiscardVoteKey(lobbyID)

	var vote *redis_models.DiscardVote
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(rc.Ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}

		vote = mergeDiscardVote(data, lobbyID, rollID, username, choice, time.Now().Unix())
		payload, err := json.Marshal(vote)
		if err != nil {
			return fmt.Errorf("error marshaling discard vote: %v", err)
		}

		_, err = tx.TxPipelined(rc.Ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(rc.Ctx, key, payload, 24*time.Hour)
			return nil
		})
		return err
	}

	for i := 0; i < castVoteRetries; i++ {
		err := rc.Client.Watch(rc.Ctx, txf, key)
		if err == nil {
			return vote, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, err
	}
	return nil, redis.TxFailedErr
}

// DeleteDiscardVote removes a lobby's discard vote once it has resolved.
func (rc *RedisClient) DeleteDiscardVote(lobbyID string) error {
	key := redis_utils.FormatDiscardVoteKey(lobbyID)
	if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting discard vote: %v", err)
	}
	return nil
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
