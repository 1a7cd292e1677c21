package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nahuelp/clipstack/internal/api/handler"
	"github.com/nahuelp/clipstack/internal/api/middleware"
	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/enrich"
	"github.com/nahuelp/clipstack/internal/llm"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/repository"
	"github.com/nahuelp/clipstack/internal/transcript"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	db *gorm.DB,
	controller *enrich.Controller,
	videos *repository.VideoRepository,
	taxonomy *repository.TaxonomyRepository,
	model *llm.Client,
	acquirer *transcript.Acquirer,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(db, model, acquirer)
	enrichHandler := handler.NewEnrichHandler(controller)
	videoHandler := handler.NewVideoHandler(videos)
	taxonomyHandler := handler.NewTaxonomyHandler(taxonomy)

	// Health checks
	r.GET("/health", healthHandler.Health)
	r.GET("/health/ready", healthHandler.Ready)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Enrichment jobs
		v1.POST("/enrich/start", enrichHandler.Start)
		v1.GET("/enrich/status/:id", enrichHandler.Status)
		v1.POST("/enrich/pause/:id", enrichHandler.Pause)
		v1.POST("/enrich/resume/:id", enrichHandler.Resume)
		v1.POST("/enrich/cancel/:id", enrichHandler.Cancel)
		v1.GET("/enrich/jobs", enrichHandler.List)
		v1.DELETE("/enrich/jobs/:id", enrichHandler.Delete)

		// Videos
		v1.GET("/videos/:id", videoHandler.GetVideo)

		// Taxonomy
		v1.GET("/areas", taxonomyHandler.ListAreas)
		v1.GET("/areas/:id/topics", taxonomyHandler.AreaTopics)

		// Stats
		v1.GET("/stats", videoHandler.GetStats)
	}

	return r
}
