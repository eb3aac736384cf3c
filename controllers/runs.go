package controllers

import (
	"net/http"
	"strconv"

	game_constants "github.com/raymiesegars/cod-zombies-tracker-sub003/constants/game"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/pending"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/reconcile"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AchievementProcessor is the collaborator that awards map achievements
// after a run lands under an account. The tracker's achievement engine
// lives outside this service.
type AchievementProcessor interface {
	ProcessMapAchievements(db *gorm.DB, username string, mapID uint) ([]string, error)
}

// NoopAchievements satisfies AchievementProcessor with no unlocks.
type NoopAchievements struct{}

func (NoopAchievements) ProcessMapAchievements(db *gorm.DB, username string, mapID uint) ([]string, error) {
	return nil, nil
}

// SubmitRunRequest is the payload for a run submission.
type SubmitRunRequest struct {
	LogType           string   `json:"log_type"`
	TitleID           uint     `json:"title_id" binding:"required"`
	MapID             uint     `json:"map_id" binding:"required"`
	ChallengeID       uint     `json:"challenge_id" binding:"required"`
	RoundReached      int      `json:"round_reached"`
	AlternateCurrency bool     `json:"alternate_currency"`
	FirstRoomOnly     bool     `json:"first_room_only"`
	StartingLoadout   string   `json:"starting_loadout"`
	CursedRelics      []string `json:"cursed_relics"`
	Teammates         []string `json:"teammates"`
}

// RunsController owns run submission and the co-op confirmation hand-off.
type RunsController struct {
	DB           *gorm.DB
	Achievements AchievementProcessor
}

// @Summary Submits a run
// @Description Records the run, opens a pending confirmation for every registered teammate and reconciles the run against the caller's active roll
// @Tags runs
// @Accept json
// @Produce json
// @Param run body SubmitRunRequest true "Run record"
// @Success 200 {object} object{run_id=integer,pending_created=integer,credited=boolean,xp=integer,achievements=array}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/runs [post]
// @Security ApiKeyAuth
func (rc *RunsController) SubmitRun(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SubmitRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed run payload"})
		return
	}
	logType := req.LogType
	if logType == "" {
		logType = game_constants.LogTypeChallenge
	}
	if logType != game_constants.LogTypeChallenge && logType != game_constants.LogTypeEasterEgg {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown log type"})
		return
	}

	// A run only makes sense against a real catalog entry; catching this
	// here keeps bogus ids from dying on the foreign keys as a 500
	var challenge models.Challenge
	err := rc.DB.Where("id = ? AND title_id = ? AND map_id = ?", req.ChallengeID, req.TitleID, req.MapID).
		First(&challenge).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown title, map or challenge"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching challenge"})
		}
		return
	}

	// Registered teammates get a confirmation row; other names stay as
	// free text on the run
	registered, guests, err := pending.SplitRegistered(rc.DB, req.Teammates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resolving teammates"})
		return
	}

	run := models.RunLog{
		Username:          username,
		LogType:           logType,
		TitleID:           req.TitleID,
		MapID:             req.MapID,
		ChallengeID:       req.ChallengeID,
		RoundReached:      req.RoundReached,
		AlternateCurrency: req.AlternateCurrency,
		FirstRoomOnly:     req.FirstRoomOnly,
		StartingLoadout:   req.StartingLoadout,
		CursedRelics:      datatypes.NewJSONType(req.CursedRelics),
		Teammates:         models.NewTeammates(registered),
		GuestTeammates:    datatypes.NewJSONType(guests),
	}

	var created []models.PendingConfirmation
	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		created, err = pending.CreateForTeammates(tx, &run)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving run"})
		return
	}

	achievements, err := rc.Achievements.ProcessMapAchievements(rc.DB, username, run.MapID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing achievements"})
		return
	}

	result, err := reconcile.Reconcile(rc.DB, username, &run)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reconciling run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":          run.ID,
		"pending_created": len(created),
		"credited":        result.Credited,
		"xp":              result.XP,
		"achievements":    achievements,
	})
}

// @Summary Lists the caller's submitted runs
// @Tags runs
// @Produce json
// @Success 200 {array} object{run_id=integer}
// @Failure 401 {object} object{error=string}
// @Router /auth/runs [get]
// @Security ApiKeyAuth
func (rc *RunsController) ListRuns(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var runs []models.RunLog
	if err := rc.DB.Where("username = ?", username).Order("created_at DESC").Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching runs"})
		return
	}

	out := make([]gin.H, len(runs))
	for i, run := range runs {
		out[i] = gin.H{
			"run_id":          run.ID,
			"log_type":        run.LogType,
			"title_id":        run.TitleID,
			"map_id":          run.MapID,
			"challenge_id":    run.ChallengeID,
			"round_reached":   run.RoundReached,
			"teammates":       run.Teammates.Data(),
			"guest_teammates": run.GuestTeammates.Data(),
			"created_at":      run.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Lists pending confirmations addressed to the caller
// @Description The poll surface for the co-op hand-off queue
// @Tags runs
// @Produce json
// @Success 200 {array} object{pending_id=integer,submitter=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/pending [get]
// @Security ApiKeyAuth
func (rc *RunsController) ListPendingConfirmations(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.PendingConfirmation
	err := rc.DB.Where("teammate_username = ? AND status = ?", username, game_constants.PendingStatusPending).
		Order("created_at DESC").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pending confirmations"})
		return
	}

	out := make([]gin.H, len(rows))
	for i, row := range rows {
		out[i] = gin.H{
			"pending_id":    row.ID,
			"source_log_id": row.SourceLogID,
			"submitter":     row.SubmitterUsername,
			"created_at":    row.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Confirms participation in a teammate's run
// @Description Copies the run under the caller's account, then runs achievements and roll reconciliation for the caller
// @Tags runs
// @Produce json
// @Param pending_id path integer true "Pending confirmation id"
// @Success 200 {object} object{run_id=integer,credited=boolean,xp=integer,achievements=array}
// @Failure 401 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/pending/{pending_id}/confirm [post]
// @Security ApiKeyAuth
func (rc *RunsController) ConfirmPendingRun(c *gin.Context) {
	username, ok := utils.CurrentUsername(c, rc.DB)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pendingID, err := strconv.ParseUint(c.Param("pending_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pending id"})
		return
	}

	copied, err := pending.Confirm(rc.DB, uint(pendingID), username)
	if err != nil {
		switch err {
		case gorm.ErrRecordNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Pending confirmation not found"})
		case pending.ErrNotAddressedToYou:
			c.JSON(http.StatusForbidden, gin.H{"error": "This confirmation is not addressed to you"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error confirming run"})
		}
		return
	}
	if copied == nil {
		// Second confirm of the same row, idempotent
		c.JSON(http.StatusOK, gin.H{"message": "Already confirmed"})
		return
	}

	achievements, err := rc.Achievements.ProcessMapAchievements(rc.DB, username, copied.MapID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing achievements"})
		return
	}

	result, err := reconcile.Reconcile(rc.DB, username, copied)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reconciling run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":       copied.ID,
		"credited":     result.Credited,
		"xp":           result.XP,
		"achievements": achievements,
	})
}
