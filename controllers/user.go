package controllers

import (
	"net/http"
	"strings"

	"github.com/raymiesegars/cod-zombies-tracker-sub003/middleware"
	models "github.com/raymiesegars/cod-zombies-tracker-sub003/models/postgres"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// @Summary Creates a new account
// @Description Registers a user plus its player profile and solo token state
// @Tags user
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} object{username=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /signup [post]
func SignUp(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		username := strings.TrimSpace(c.PostForm("username"))
		password := c.PostForm("password")

		if email == "" || username == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			profile := models.PlayerProfile{Username: username}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			user := models.User{
				Email:           email,
				ProfileUsername: username,
				PasswordHash:    string(hash),
			}
			return tx.Create(&user).Error
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email or username already taken"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"username": username})
	}
}

// @Summary Logs a user in
// @Description Starts a cookie session for the account
// @Tags user
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} object{}
// @Failure 401 {object} object{error=string}
// @Router /login [post]
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email := c.PostForm("email")
		password := c.PostForm("password")

		// Minimum input sanitizing
		if strings.Trim(email, " ") == "" || strings.Trim(password, " ") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		session.Set(middleware.SessionEmailKey, user.Email)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No session!"})
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	}
}

// Logout from server, deletes the session associated with the Email key
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get(middleware.SessionEmailKey)
	// There is no session for the user, won't delete nothing
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	session.Delete(middleware.SessionEmailKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// @Summary Public profile of a user
// @Description Returns the public game profile for a username
// @Tags user
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,icon=integer,total_xp=integer,box_completions=integer}
// @Failure 404 {object} object{error=string}
// @Router /users/{username} [get]
func GetUserPublicInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var profile models.PlayerProfile
		if err := db.Where("username = ?", username).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"username":        profile.Username,
			"icon":            profile.UserIcon,
			"total_xp":        profile.TotalXP,
			"box_completions": profile.BoxCompletions,
		})
	}
}
