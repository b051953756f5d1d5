package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"MateGuard/internal/contacts"
	"MateGuard/internal/crisis"
	"MateGuard/internal/ledger"
	"MateGuard/pkg/capability"
	"MateGuard/pkg/config"
	"MateGuard/pkg/metrics"
	"MateGuard/pkg/middleware"
	"MateGuard/pkg/websocket"
)

type Handlers struct {
	db        *gorm.DB
	book      *contacts.Book
	ledger    *ledger.Ledger
	responder *crisis.Responder
	caps      *capability.Manager
	hub       *websocket.Hub
}

func NewHandlers(db *gorm.DB, book *contacts.Book, led *ledger.Ledger,
	responder *crisis.Responder, caps *capability.Manager, hub *websocket.Hub) *Handlers {
	return &Handlers{
		db:        db,
		book:      book,
		ledger:    led,
		responder: responder,
		caps:      caps,
		hub:       hub,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(metrics.Middleware(metrics.Global()))

	// Register System Module Routes
	engine.GET("/health", h.HealthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r := engine.Group(config.GlobalConfig.APIPrefix)
	r.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
		Rate:      config.GlobalConfig.RateLimit,
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// Register Business Module Routes
	h.registerCrisisRoutes(r)
	h.registerContactRoutes(r)
	h.registerPermissionRoutes(r)
	h.registerChannelRoutes(engine)
}

func (h *Handlers) registerCrisisRoutes(r *gin.RouterGroup) {
	g := r.Group("/crisis")
	{
		g.POST("/assess", h.handleAssess)
		g.POST("/trigger", middleware.Idempotency(middleware.IdempotencyConfig{}), h.handleTrigger)
		g.POST("/alerts/:id/ack", h.handleAcknowledge)
		g.GET("/alerts", h.handleAlertHistory)
		g.GET("/escalations", h.handleEscalationHistory)
		g.GET("/actions", h.handleRecentActions)
		g.GET("/resources", h.handleResources)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	g := r.Group("/contacts")
	{
		g.GET("", h.handleListContacts)
		g.POST("", h.handleAddContact)
		g.PUT("/:id", h.handleUpdateContact)
		g.DELETE("/:id", h.handleDeleteContact)
	}
}

func (h *Handlers) registerPermissionRoutes(r *gin.RouterGroup) {
	g := r.Group("/permissions")
	{
		g.GET("", h.handlePermissionSnapshot)
		g.POST("/refresh", h.handlePermissionRefresh)
	}
}

func (h *Handlers) registerChannelRoutes(engine *gin.Engine) {
	engine.GET("/ws/alerts", h.handleAlertChannel)
}
