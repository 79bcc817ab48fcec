package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/handler"
	"github.com/noah-isme/sciclub-api/internal/middleware"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/service"
	"github.com/noah-isme/sciclub-api/pkg/config"
	"github.com/noah-isme/sciclub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sciclub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sciclub-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Applications   *handler.ApplicationHandler
	Admin          *handler.AdminApplicationHandler
	Advisor        *handler.AdvisorHandler
	AdvisorProfile *handler.AdvisorProfileHandler
	Auth           *handler.AuthHandler
	Profile        *handler.ProfileHandler
	Contact        *handler.ContactHandler
	Statistics     *handler.StatisticsHandler
	Metrics        *handler.MetricsHandler
}

// RouterDeps carries the collaborators needed to mount routes.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Auth       *service.AuthService
	Metrics    *service.MetricsService
	Statistics *service.StatisticsService
	Handlers   Handlers
}

// NewRouter mounts the public, admin and advisor route groups.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.Metrics, "/health", "/ready", "/metrics"))
	}

	h := deps.Handlers
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("")
	if cfg.Statistics.Enabled && deps.Statistics != nil {
		public.Use(middleware.PageViews(deps.Statistics))
	}
	public.POST("/applications", h.Applications.Submit)
	public.GET("/applications/track", h.Applications.Track)
	public.POST("/applications/track", h.Applications.TrackByBody)
	public.POST("/certificates/download", h.Applications.Download)
	public.GET("/certificates/files/:token", h.Applications.SignedDownload)
	public.POST("/contact/otp", h.Contact.RequestCode)
	public.POST("/contact/verify", h.Contact.Verify)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/advisor/login", h.Auth.AdvisorLogin)

	admin := api.Group("/admin", middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/applications", h.Admin.List)
	admin.GET("/applications/export", h.Admin.Export)
	admin.GET("/applications/:id", h.Admin.Get)
	admin.PUT("/applications/:id", h.Admin.Update)
	admin.DELETE("/applications/:id", h.Admin.Delete)
	admin.GET("/statistics", h.Statistics.Summary)
	admin.GET("/metrics", h.Metrics.Snapshot)
	admin.GET("/profile", h.Profile.Get)
	admin.PUT("/profile/name", h.Profile.UpdateName)
	admin.POST("/profile/email/otp", h.Profile.RequestEmailChange)
	admin.POST("/profile/email/verify", h.Profile.VerifyEmailChange)
	admin.POST("/profile/password/otp", h.Profile.RequestPasswordChange)
	admin.POST("/profile/password/verify", h.Profile.VerifyPasswordChange)

	advisor := api.Group("/advisor", middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdvisor))
	advisor.GET("/applications", h.Advisor.List)
	advisor.POST("/applications/:id/approve", h.Advisor.Approve)
	advisor.GET("/profile", h.AdvisorProfile.Get)
	advisor.PUT("/profile", h.AdvisorProfile.Update)

	return r
}
