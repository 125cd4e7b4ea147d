package routes

import (
	"github.com/gin-gonic/gin"

	"mailauth/internal/handlers"
	"mailauth/internal/middleware"
	"mailauth/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	tokens *services.TokenService,
) *gin.Engine {

	r.GET("/healthz", handlers.Healthz)

	// ---- public
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.GET("/verify/:token", authHandler.VerifyEmail)
		auth.POST("/send-otp", authHandler.SendOTP)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/google", authHandler.GoogleLogin)
	}

	// ---- protected
	protected := r.Group("/api/auth")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/me", authHandler.Me)
	}

	return r
}
