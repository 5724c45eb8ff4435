package router

import (
	"github.com/gin-gonic/gin"

	"github.com/bookyourshoot/backend/internal/config"
	"github.com/bookyourshoot/backend/internal/http/handlers"
	"github.com/bookyourshoot/backend/internal/http/middleware"
	"github.com/bookyourshoot/backend/internal/models"
	"github.com/bookyourshoot/backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	payoutHandler *handlers.PayoutHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// WebSocket авторизуется токеном в query, минуя AuthMiddleware
	api.GET("/ws/payments/:id/countdown", wsHandler.StreamCountdown)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		payments := protected.Group("/payments")
		{
			payments.POST("/hold", paymentHandler.CreateHold)
			payments.GET("", paymentHandler.List)
			payments.GET("/payouts", payoutHandler.ListMine)
			payments.GET("/:id", middleware.UUIDValidator("id"), paymentHandler.Get)
			payments.GET("/:id/countdown", middleware.UUIDValidator("id"), paymentHandler.Countdown)
			payments.POST("/:id/release", middleware.UUIDValidator("id"), paymentHandler.Release)
		}

		disputes := protected.Group("/disputes")
		{
			disputes.POST("/create", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), disputeHandler.Create)
			disputes.GET("", disputeHandler.ListMine)
			disputes.GET("/:disputeId", disputeHandler.Get)
			disputes.POST("/:disputeId/evidence", disputeHandler.UploadEvidence)
		}

		admin := protected.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/payments/admin/refund/:id", middleware.UUIDValidator("id"), paymentHandler.Refund)
			admin.GET("/payments/admin/payouts", payoutHandler.ListQueue)
			admin.POST("/payments/admin/process/:payoutId", middleware.UUIDValidator("payoutId"), payoutHandler.Process)
			admin.POST("/payments/admin/reject/:payoutId", middleware.UUIDValidator("payoutId"), payoutHandler.Reject)

			admin.GET("/admin/disputes", disputeHandler.ListForReview)
			admin.POST("/admin/disputes/:disputeId/review", disputeHandler.Review)
			admin.POST("/admin/disputes/:disputeId/resolve", disputeHandler.Resolve)
		}
	}

	return r
}
