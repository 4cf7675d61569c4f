package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/NaiYuk/Taskun/internal/handlers"
	"github.com/NaiYuk/Taskun/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	googleHandler *handlers.GoogleHandler,
	jwtKey []byte,
) *gin.Engine {

	// ---- public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/password-reset/request", authHandler.RequestPasswordReset)
	r.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// Google redirects back here without our bearer token; the signed
	// state parameter identifies the user instead.
	r.GET("/integrations/google/callback", googleHandler.Callback)

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtKey))

	tasks := r.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	google := r.Group("/integrations/google")
	{
		google.GET("/connect", googleHandler.Connect)
		google.POST("/events", googleHandler.CreateEvent)
	}

	return r
}
