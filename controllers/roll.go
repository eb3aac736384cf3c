package controllers

import (
	"errors"
	"net/http"

	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	redis_models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/redis"
	lobby_service "github.com/raymiesegars/cod-zombies-tracker-sub003/services/lobby"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RollRequest is the filter payload accepted by the roll endpoint.
type RollRequest struct {
	ExcludedTitleIDs []uint `json:"excluded_title_ids"`
	ExcludeSpeedruns bool   `json:"exclude_speedruns"`
	MaxRound         *int   `json:"max_round"`
}

// RollController owns the roulette endpoints: rolling the mystery box and
// resolving discard votes.
type RollController struct {
	DB          *gorm.DB
	RedisClient *redis.RedisClient
	Service     *lobby_service.RollService
}

// @Summary Rolls the mystery box for the caller's lobby
// @Description Charges every participant one token and replaces the lobby's active roll; all-or-nothing on failure
// @Tags roll
// @Accept json
// @Produce json
// @Param filter body RollRequest false "Roll filters"
// @Success 200 {object} object{roll=object}
// @Failure 400 {object} object{error=string,short=array}
// @Failure 401 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/lobby/roll [post]
// @Security ApiKeyAuth
func (rc *RollController) RollForLobby(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RollRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed filter payload"})
		return
	}
	filter := models.FilterSpec{
		ExcludedTitleIDs: req.ExcludedTitleIDs,
		ExcludeSpeedruns: req.ExcludeSpeedruns,
		MaxRound:         req.MaxRound,
	}

	roll, err := rc.Service.RollForLobby(username, filter)
	if err != nil {
		var short *lobby_service.InsufficientTokensError
		switch {
		case errors.As(err, &short):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "One or more participants have no tokens",
				"short": short.Short,
			})
		case errors.Is(err, lobby_service.ErrNoEligibleChallenge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No challenge matches those filters, try relaxing them"})
		case errors.Is(err, lobby_service.ErrNotHost):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can roll"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error rolling the mystery box"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"roll": rollResponse(roll)})
}

// @Summary Votes to discard the lobby's active roll
// @Description Records the caller's choice; resolves once every participant has voted and a unanimous discard deletes the roll
// @Tags roll
// @Accept x-www-form-urlencoded
// @Produce json
// @Param choice formData string false "discard or keep (default discard)"
// @Success 200 {object} object{resolved=boolean,discarded=boolean,votes=integer,needed=integer}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/lobby/roll/discard [post]
// @Security ApiKeyAuth
func (rc *RollController) DiscardRoll(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	choice := redis_models.VoteChoice(c.DefaultPostForm("choice", string(redis_models.VoteDiscard)))
	if choice != redis_models.VoteDiscard && choice != redis_models.VoteKeep {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Choice must be discard or keep"})
		return
	}

	lob, err := lobby_service.FindForUser(rc.DB, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching lobby"})
		return
	}

	var roll models.Roll
	if err := rc.DB.Where("lobby_id = ?", lob.ID).First(&roll).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active roll to discard"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching roll"})
		}
		return
	}

	participants, err := lobby_service.Participants(rc.DB, lob)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching members"})
		return
	}

	// The cast is atomic on the Redis side so two simultaneous ballots both
	// land instead of the later write clobbering the earlier one.
	vote, err := rc.RedisClient.CastDiscardVote(lob.ID, roll.ID, username, choice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving vote"})
		return
	}

	done, discard := vote.Resolved(participants)
	if !done {
		c.JSON(http.StatusOK, gin.H{
			"resolved":  false,
			"discarded": false,
			"votes":     len(vote.Votes),
			"needed":    len(participants),
		})
		return
	}

	// Every participant has voted, the consensus object resolves and dies
	if err := rc.RedisClient.DeleteDiscardVote(lob.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resolving vote"})
		return
	}
	if discard {
		if err := rc.DB.Where("id = ?", roll.ID).Delete(&models.Roll{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error discarding roll"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"resolved":  true,
		"discarded": discard,
		"votes":     len(participants),
		"needed":    len(participants),
	})
}

// @Summary Resets a solo lobby's roll
// @Description Solo-only shortcut that deletes the active roll without a vote
// @Tags roll
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/lobby/roll/reset [post]
// @Security ApiKeyAuth
func (rc *RollController) ResetSoloRoll(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	lob, err := lobby_service.FindForUser(rc.DB, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching lobby"})
		return
	}

	participants, err := lobby_service.Participants(rc.DB, lob)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching members"})
		return
	}
	if len(participants) > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Grouped lobbies resolve rolls by vote"})
		return
	}

	res := rc.DB.Where("lobby_id = ?", lob.ID).Delete(&models.Roll{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resetting roll"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active roll to reset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Roll reset successfully"})
}
