package handlers

import (
	"powerband/internal/logger"
	"powerband/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// Live status stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerStrategyRoutes(api)
		h.registerBandRoutes(api)
		h.registerPriceRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerStrategyRoutes(api *gin.RouterGroup) {
	strategy := api.Group("/strategy")
	{
		strategy.GET("/status", h.getStatus)
		strategy.GET("/settings", h.getSettings)
		// Body example: {"enabled":true,"champion_mode_enabled":false}
		strategy.PUT("/settings", h.updateSettings)
		strategy.POST("/evaluate", h.requestEvaluation)
		strategy.GET("/miners", h.listMiners)
		strategy.POST("/miners", h.enrollMiner)
		strategy.DELETE("/miners/:id", h.unenrollMiner)
	}
}

func (h *Handler) registerBandRoutes(api *gin.RouterGroup) {
	bands := api.Group("/bands")
	{
		bands.GET("/", h.listBands)
		bands.POST("/", h.createBand)
		bands.PUT("/:id", h.updateBand)
		bands.DELETE("/:id", h.deleteBand)
		bands.POST("/reset", h.resetBands)
	}
}

func (h *Handler) registerPriceRoutes(api *gin.RouterGroup) {
	prices := api.Group("/prices")
	{
		prices.GET("/", h.getPriceTimeline)
		prices.GET("/current", h.getCurrentPrice)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	{
		events.GET("/", h.getEvents)
	}
}
