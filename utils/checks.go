package utils

import (
	"github.com/raymiesegars/cod-zombies-tracker-sub003/middleware"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentUsername resolves the calling account's profile username from the
// cookie session. Returns ("", false) when there is no authenticated caller
// or the session points at a deleted user.
func CurrentUsername(c *gin.Context, db *gorm.DB) (string, bool) {
	session := sessions.Default(c)
	email, ok := session.Get(middleware.SessionEmailKey).(string)
	if !ok || email == "" {
		return "", false
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return "", false
	}
	return user.ProfileUsername, true
}
