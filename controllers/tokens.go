package controllers

import (
	"net/http"
	"time"

	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/tokens"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Current mystery box token state
// @Description Lazily accrues due tokens and returns the refreshed count plus the next accrual timestamp while below cap
// @Tags tokens
// @Produce json
// @Success 200 {object} object{tokens=integer,next_token_at=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/tokens [get]
// @Security ApiKeyAuth
func GetTokenState(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := utils.CurrentUsername(c, db)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		state, err := tokens.Accrue(db, username, time.Now())
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error refreshing tokens"})
			}
			return
		}

		c.JSON(http.StatusOK, state)
	}
}
