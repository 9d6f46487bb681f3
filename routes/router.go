package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/controllers"
	"github.com/finalthread/server/middleware"
	"github.com/finalthread/server/storage"
	"github.com/finalthread/server/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, blobs storage.BlobStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Refresh proof-of-life after each authenticated request
	r.Use(middleware.ActivityRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	messageController := controllers.NewMessageController(db)
	capsuleController := controllers.NewCapsuleController(db, blobs)
	assetController := controllers.NewAssetController(db, blobs)
	contactController := controllers.NewContactController(db)
	instructionController := controllers.NewInstructionController(db)
	dashboardController := controllers.NewDashboardController(db)
	checkInController := controllers.NewCheckInController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/captcha/verify", authController.CaptchaVerify)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/messages", messageController.Create)
	protected.GET("/messages", messageController.List)
	protected.GET("/messages/:id", messageController.Get)
	protected.PUT("/messages/:id", messageController.Update)
	protected.DELETE("/messages/:id", messageController.Delete)

	protected.POST("/capsules", capsuleController.Create)
	protected.POST("/capsules/file", capsuleController.CreateFile)
	protected.GET("/capsules", capsuleController.List)
	protected.GET("/capsules/:id", capsuleController.Get)
	protected.DELETE("/capsules/:id", capsuleController.Delete)

	protected.POST("/assets", assetController.Upload)
	protected.GET("/assets", assetController.List)
	protected.PATCH("/assets/:id", assetController.Update)
	protected.GET("/assets/:id/download-url", assetController.DownloadURL)
	protected.DELETE("/assets/:id", assetController.Delete)

	protected.POST("/contacts", contactController.Create)
	protected.GET("/contacts", contactController.List)
	protected.PUT("/contacts/:id", contactController.Update)
	protected.DELETE("/contacts/:id", contactController.Delete)

	protected.GET("/instructions", instructionController.Get)
	protected.PUT("/instructions", instructionController.Put)

	protected.GET("/dashboard/summary", dashboardController.Summary)
	protected.GET("/dashboard/storage", dashboardController.Storage)

	protected.POST("/checkin", checkInController.CheckIn)
	protected.GET("/checkin/status", checkInController.Status)
	protected.GET("/checkin/history", checkInController.History)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
