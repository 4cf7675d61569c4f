package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/NaiYuk/Taskun/internal/config"
	"github.com/NaiYuk/Taskun/internal/handlers"
	"github.com/NaiYuk/Taskun/internal/repositories"
	"github.com/NaiYuk/Taskun/internal/routes"
	"github.com/NaiYuk/Taskun/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/NaiYuk/Taskun/docs"
)

func Run() {
	cfg := config.LoadConfig()
	jwtKey := []byte(cfg.Auth.JWTSecret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	tokenRepo := repositories.NewGoogleTokenRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	userService := services.NewUserService(userRepo, emailService, authService)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService)
	taskService := services.NewTaskService(taskRepo)

	oauthService := services.NewGoogleOAuthService(cfg.Google, tokenRepo)
	calendarService := services.NewCalendarService(oauthService)
	slackService := services.NewSlackService(cfg.Slack.WebhookURL)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, resetService, jwtKey)
	taskHandler := handlers.NewTaskHandler(taskService, slackService)
	googleHandler := handlers.NewGoogleHandler(oauthService, calendarService, jwtKey)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		taskHandler,
		googleHandler,
		jwtKey,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
