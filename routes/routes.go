package routes

import (
	"math/rand"
	"time"

	"github.com/raymiesegars/cod-zombies-tracker-sub003/controllers"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/middleware"
	lobby_service "github.com/raymiesegars/cod-zombies-tracker-sub003/services/lobby"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/redis"
	"github.com/raymiesegars/cod-zombies-tracker-sub003/services/roulette"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient) {
	// Create controllers
	selector := roulette.NewSelector(&roulette.GormCatalog{DB: db}, rand.New(rand.NewSource(time.Now().UnixNano())))
	rollService := &lobby_service.RollService{
		DB:       db,
		Ledger:   lobby_service.DBTokenLedger{DB: db},
		Selector: selector,
	}
	rollController := &controllers.RollController{DB: db, RedisClient: redisClient, Service: rollService}
	runsController := &controllers.RunsController{DB: db, Achievements: controllers.NoopAchievements{}}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db))

	api.GET("/users/:username", controllers.GetUserPublicInfo(db))

	api.GET("/catalog/titles", controllers.GetTitles(db))

	api.GET("/catalog/challenges", controllers.GetChallenges(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/tokens", controllers.GetTokenState(db))

		authentication.POST("/lobby", controllers.CreateLobby(db))

		authentication.POST("/lobby/join/:lobby_id", controllers.JoinLobby(db))

		authentication.POST("/lobby/leave", controllers.LeaveLobby(db, redisClient))

		authentication.GET("/lobby", controllers.GetLobbyInfo(db, redisClient))

		authentication.POST("/lobby/roll", rollController.RollForLobby)

		authentication.POST("/lobby/roll/discard", rollController.DiscardRoll)

		authentication.POST("/lobby/roll/reset", rollController.ResetSoloRoll)

		authentication.POST("/runs", runsController.SubmitRun)

		authentication.GET("/runs", runsController.ListRuns)

		authentication.GET("/pending", runsController.ListPendingConfirmations)

		authentication.POST("/pending/:pending_id/confirm", runsController.ConfirmPendingRun)
	}
}
