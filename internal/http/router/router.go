package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/citysafe/citysafe-backend/internal/config"
	"github.com/citysafe/citysafe-backend/internal/http/handlers"
	"github.com/citysafe/citysafe-backend/internal/http/middleware"
	"github.com/citysafe/citysafe-backend/internal/service"
)

// SetupRouter собирает все маршруты сервиса.
func SetupRouter(
	cfg *config.Config,
	reportHandler *handlers.ReportHandler,
	mediaHandler *handlers.MediaHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	statsHandler *handlers.StatsHandler,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
	tokenManager *service.TokenManager,
	registrationLimiter *limiter.Limiter,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/ws", wsHandler.Handle)

	reports := r.Group("/reports")
	{
		reports.POST("", reportHandler.Create)
		reports.GET("", reportHandler.List)
		reports.GET("/geojson", reportHandler.GeoJSON)
		reports.GET("/:id", middleware.UUIDValidator("id"), reportHandler.GetByID)
	}

	media := r.Group("/media")
	{
		media.GET("/:id", middleware.UUIDValidator("id"), mediaHandler.Get)
		media.DELETE("/:id", middleware.UUIDValidator("id"), mediaHandler.Delete)
	}

	auth := r.Group("/auth")
	{
		// Регистрацию ограничиваем по адресу клиента.
		auth.POST("/register", middleware.RateLimitMiddleware(registrationLimiter), authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(tokenManager), authHandler.Me)
	}

	users := r.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/:id", middleware.UUIDValidator("id"), userHandler.GetByID)
	}

	analytics := r.Group("/analytics")
	{
		analytics.GET("/counts", statsHandler.Counts)
		analytics.GET("/density", statsHandler.Density)
	}

	return r
}
