package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/teresa-solution/tenant-order-service/internal/auth"
	"github.com/teresa-solution/tenant-order-service/internal/service"
	"github.com/teresa-solution/tenant-order-service/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

type RouterConfig struct {
	Tenants *service.TenantService
	Orders  *service.OrderService

	// Verifier guards /tenants and /orders. Nil disables authentication.
	Verifier *auth.Verifier

	// CORSOrigins lists allowed origins; empty or "*" allows any.
	CORSOrigins []string

	DefaultPageSize int
	MaxPageSize     int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(otelgin.Middleware(telemetry.ServiceName))
	r.Use(RequestLogger())
	r.Use(Metrics())
	r.Use(CORS(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	r.GET("/health", Health)

	// Preflight without CORS headers still gets 200 and an empty body
	for _, path := range []string{"/health", "/tenants", "/tenants/:id", "/orders", "/orders/:id"} {
		r.OPTIONS(path, preflight)
	}

	protected := r.Group("/")
	if cfg.Verifier != nil {
		protected.Use(auth.RequireAuth(cfg.Verifier))
	}

	pages := pageSizes{def: cfg.DefaultPageSize, max: cfg.MaxPageSize}

	if cfg.Tenants != nil {
		h := &TenantHandler{svc: cfg.Tenants, pages: pages}
		protected.POST("/tenants", h.Create)
		protected.GET("/tenants", h.List)
		protected.GET("/tenants/:id", h.Get)
		protected.PUT("/tenants/:id", h.Update)
		protected.DELETE("/tenants/:id", h.Delete)
		protected.PUT("/tenants", missingID("Tenant ID and request body are required"))
		protected.DELETE("/tenants", missingID("Tenant ID is required"))
	}

	if cfg.Orders != nil {
		h := &OrderHandler{svc: cfg.Orders, pages: pages}
		protected.POST("/orders", h.Create)
		protected.GET("/orders", h.List)
		protected.GET("/orders/:id", h.Get)
		protected.PUT("/orders/:id", h.Update)
		protected.DELETE("/orders/:id", h.Delete)
		protected.PUT("/orders", missingID("Order ID and request body are required"))
		protected.DELETE("/orders", missingID("Order ID is required"))
	}

	return r
}

// CORS answers browser preflights with 200 and allows any origin when
// origins is empty or "*".
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", "Authorization", "X-Amz-Date", "X-Api-Key", "X-Amz-Security-Token"},
		ExposeHeaders:             []string{requestIDHeader},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func missingID(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	}
}

// Health reports liveness. It needs no authentication.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
