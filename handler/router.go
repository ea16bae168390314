package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/middleware"
	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer needs. Notifier and
// Store are optional.
type Dependencies struct {
	Config    *config.Config
	Gateway   service.Gateway
	Directory *service.Directory
	Notifier  service.Notifier
	Store     service.ObjectStore
	Location  *time.Location
}

// NewRouter wires middleware and routes
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}

	authHandler := NewAuthHandler(&cfg.Auth)
	leadHandler := NewLeadHandler(deps.Gateway, deps.Directory, deps.Notifier, loc, cfg.Capture.RefreshDelay())
	exportHandler := NewExportHandler(deps.Directory, deps.Store)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.AllowOrigins))
	router.Use(middleware.NoCache())
	router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerMinute))

	if dir := cfg.Server.StaticDir; dir != "" {
		slog.Info("serving static files", "directory", dir)
		router.Static("/static", dir)
		router.StaticFile("/", filepath.Join(dir, "index.html"))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/leads", leadHandler.List)
		api.POST("/leads", middleware.RateLimit(cfg.RateLimit.SubmitsPerMinute), leadHandler.Submit)
	}

	protected := api.Group("/")
	protected.Use(adminGate(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/admin/leads", leadHandler.AdminCreate)
		protected.GET("/admin/stats", leadHandler.Stats)
		protected.GET("/admin/export", exportHandler.Export)
	}

	return router
}

// adminGate hides the admin routes entirely when no admin password is set.
func adminGate(cfg *config.AuthConfig) gin.HandlerFunc {
	if !cfg.AdminEnabled() {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Admin is not configured"})
		}
	}
	return middleware.AuthMiddleware(cfg, middleware.RoleAdmin)
}
