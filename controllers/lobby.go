package controllers

import (
	"log"
	"net/http"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	redis_models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/redis"
	lobby_service "github.com/raymiesegars/cod-zombies-tracker-sub003/services/lobby"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis"
	redis_utils "github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis/utils"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Creates a lobby for the caller to host
// @Description Returns the caller's lobby code; grouped accounts must leave their lobby first
// @Tags lobby
// @Produce json
// @Success 200 {object} object{lobby_id=string,message=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/lobby [post]
// @Security ApiKeyAuth
func CreateLobby(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.CurrentUsername(c, db)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		lob, err := lobby_service.Create(db, username)
		if err != nil {
			if err == lobby_service.ErrAlreadyGrouped {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Leave your current lobby first"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating lobby"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"lobby_id": lob.ID, "message": "Lobby created successfully"})
	}
}

// @Summary Joins a lobby by code
// @Description Moves the caller into the given lobby; the caller's own solo lobby and roll are dropped
// @Tags lobby
// @Produce json
// @Param lobby_id path string true "Lobby code"
// @Success 200 {object} object{lobby_id=string,message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/lobby/{lobby_id}/join [post]
// @Security ApiKeyAuth
func JoinLobby(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.CurrentUsername(c, db)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		lobbyID := c.Param("lobby_id")

		lob, err := lobby_service.Join(db, username, lobbyID)
		if err != nil {
			switch err {
			case lobby_service.ErrLobbyNotFound:
				c.JSON(http.StatusNotFound, gin.H{"error": "Lobby not found"})
			case lobby_service.ErrAlreadyGrouped:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Leave your current lobby first"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error joining lobby"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"lobby_id": lob.ID, "message": "Joined lobby successfully"})
	}
}

// @Summary Leaves the current lobby
// @Description Stands up a fresh solo lobby for the caller, carrying the active roll over as a copy
// @Tags lobby
// @Produce json
// @Success 200 {object} object{lobby_id=string,message=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/lobby/leave [post]
// @Security ApiKeyAuth
func LeaveLobby(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.CurrentUsername(c, db)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		old, err := lobby_service.FindForUser(db, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching lobby"})
			return
		}

		solo, err := lobby_service.Leave(db, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error leaving lobby"})
			return
		}

		// Membership changed, so any discard vote open against the old
		// lobby no longer has a valid participant set
		if err := redisClient.CleanupKeys([]string{redis_utils.FormatDiscardVoteKey(old.ID)}); err != nil {
			log.Printf("[LOBBY] cleanup of discard vote for %s failed: %v", old.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{"lobby_id": solo.ID, "message": "Exited lobby successfully"})
	}
}

// @Summary Info of the caller's lobby
// @Description Returns host, members, the active roll and any open discard vote
// @Tags lobby
// @Produce json
// @Success 200 {object} object{lobby_id=string,host=string,members=array,roll=object,discard_vote=object}
// @Failure 401 {object} object{error=string}
// @Router /auth/lobby [get]
// @Security ApiKeyAuth
func GetLobbyInfo(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.CurrentUsername(c, db)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		lob, err := lobby_service.FindForUser(db, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching lobby"})
			return
		}

		participants, err := lobby_service.Participants(db, lob)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching members"})
			return
		}

		response := gin.H{
			"lobby_id":   lob.ID,
			"host":       lob.HostUsername,
			"members":    participants[1:],
			"created_at": lob.CreatedAt,
		}

		var roll models.Roll
		if err := db.Where("lobby_id = ?", lob.ID).First(&roll).Error; err == nil {
			response["roll"] = rollResponse(&roll)

			vote, voteErr := redisClient.GetDiscardVote(lob.ID)
			summary, err := discardVoteSummary(vote, voteErr, roll.ID, len(participants))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching vote"})
				return
			}
			if summary != nil {
				response["discard_vote"] = summary
			}
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching roll"})
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

// discardVoteSummary shapes an open discard vote for the lobby info payload.
// A missing key, or a vote pinned to a roll other than the live one, yields
// no summary at all.
func discardVoteSummary(vote *redis_models.DiscardVote, err error, rollID uint, needed int) (gin.H, error) {
	switch {
	case err == redis.ErrNotFound:
		return nil, nil
	case err != nil:
		return nil, err
	case vote.RollID != rollID:
		return nil, nil
	}
	return gin.H{"votes": vote.Votes, "needed": needed}, nil
}

// rollResponse shapes a roll for API responses.
func rollResponse(roll *models.Roll) gin.H {
	return gin.H{
		"roll_id":           roll.ID,
		"title_id":          roll.TitleID,
		"map_id":            roll.MapID,
		"challenge_id":      roll.ChallengeID,
		"tags":              roll.Tags.Data(),
		"filter_settings":   roll.FilterSettings.Data(),
		"participant_count": roll.ParticipantCount,
		"completed_by_host": roll.CompletedByHost,
		"created_at":        roll.CreatedAt,
	}
}
