package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/university-api/internal/handler"
	"github.com/jwalitptl/university-api/internal/middleware"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	h        *handler.Handler
	health   Handler
	handlers []Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	MetricsPath      string
	CORSConfig       middleware.CORSConfig
	Logger           *logger.Logger
	Metrics          *metrics.Metrics
}

// NewRouter wires the middleware chain. Domain handlers are mounted under
// /api/v1 by Setup.
func NewRouter(h *handler.Handler, health Handler, config RouterConfig, handlers ...Handler) *Router {
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = middleware.DefaultTimeoutConfig().Duration
	}
	if len(config.CORSConfig.AllowOrigins) == 0 {
		config.CORSConfig = middleware.DefaultCORSConfig()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = middleware.DefaultSizeLimitConfig().MaxBodySize
	}

	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(config.Logger),
		middleware.Logger(config.Logger),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	engine.Use(
		middleware.ErrorHandler(config.Logger),
		middleware.Validation(middleware.DefaultValidationConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(middleware.SizeLimitConfig{
			MaxBodySize:  config.MaxBodyBytes,
			ErrorMessage: middleware.DefaultSizeLimitConfig().ErrorMessage,
		}),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		config:   config,
		h:        h,
		health:   health,
		handlers: handlers,
	}
}

func (r *Router) Setup() {
	if r.config.MetricsPath != "" && r.h != nil {
		r.engine.GET(r.config.MetricsPath, r.h.MetricsHandler)
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if r.health != nil {
		r.health.RegisterRoutes(api)
	}

	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
