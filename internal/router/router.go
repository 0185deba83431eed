package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	RateLimit      rate.Limit
	RateBurst      int
	// RateLimitEnabled switches the shared token bucket on.
	RateLimitEnabled bool
	CORSConfig       middleware.CORSConfig
}

// Handlers groups the route sets by the access they need. Metrics and
// health stay outside /api/v1 auth so probes and scrapers keep working.
type Handlers struct {
	Metrics   Handler
	Health    Handler
	Public    []Handler
	Protected []Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

// NewRouter builds the engine and its middleware chain. A nil auth
// middleware leaves the protected routes open.
func NewRouter(config RouterConfig, log *logger.Logger, m *metrics.Metrics, auth *middleware.AuthMiddleware, handlers Handlers) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log, m),
		middleware.Recovery(log),
		middleware.ErrorHandler(log),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}
	r.setup()
	return r
}

func (r *Router) setup() {
	if r.handlers.Metrics != nil {
		r.handlers.Metrics.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}
	for _, h := range r.handlers.Public {
		h.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(middleware.CacheControl(middleware.NoStoreConfig()))
	if r.auth != nil {
		protected.Use(r.auth.Authenticate())
	}
	for _, h := range r.handlers.Protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
