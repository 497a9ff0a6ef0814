package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sidhardha7/content-sensitivity-backend/internal/auth"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"github.com/sidhardha7/content-sensitivity-backend/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Dependencies struct {
	Logger   *zap.Logger
	Tokens   *auth.TokenManager
	Tenants  port.TenantRepository
	Users    port.UserRepository
	Videos   port.VideoRepository
	Store    port.ObjectStore
	Pipeline *usecase.AnalyzeVideoUseCase

	ServiceName         string
	CORSOrigins         []string
	UploadMaxBytes      int64
	UploadRatePerMinute int
}

// NewRouter assembles the tenant-facing HTTP API.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(corsMiddleware(deps.CORSOrigins))

	authHandler := newAuthHandler(deps.Tenants, deps.Users, deps.Tokens, deps.Logger)
	videoHandler := newVideoHandler(deps.Videos, deps.Store, deps.Pipeline, deps.Logger, deps.UploadMaxBytes)
	userHandler := newUserHandler(deps.Users, deps.Logger)
	tenantHandler := newTenantHandler(deps.Tenants, deps.Logger)

	uploadLimiter := rate.NewLimiter(rate.Limit(float64(deps.UploadRatePerMinute)/60), deps.UploadRatePerMinute)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)

		secured := v1.Group("", AuthRequired(deps.Tokens))

		videos := secured.Group("/videos")
		videos.POST("", RateLimit(uploadLimiter), videoHandler.Upload)
		videos.GET("", videoHandler.List)
		videos.GET("/:id", videoHandler.Get)
		videos.DELETE("/:id", videoHandler.Delete)
		videos.GET("/:id/stream", videoHandler.Stream)
		videos.GET("/:id/analysis", videoHandler.Analysis)
		videos.POST("/:id/analyze", videoHandler.Analyze)

		users := secured.Group("/users", RequireRole(entity.RoleAdmin))
		users.POST("", userHandler.Create)
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.DELETE("/:id", userHandler.Delete)

		tenant := secured.Group("/tenant")
		tenant.GET("", tenantHandler.Get)
		tenant.PATCH("", RequireRole(entity.RoleAdmin), tenantHandler.Rename)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
