package router

import (
	"net/http"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/erp/treasury/internal/interfaces/http/handler"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries everything NewEngine wires into the middleware chain
type EngineConfig struct {
	HTTP        config.HTTPConfig
	Logger      *zap.Logger
	JWT         middleware.JWTMiddlewareConfig
	Idempotency middleware.IdempotencyConfig
	Tracing     middleware.TracingConfig
	// Meter is optional; nil disables HTTP metrics
	Meter metric.Meter
	// Profiling labels request CPU samples by route
	Profiling bool
}

// NewEngine builds the gin engine with the middleware chain, the probes and
// the treasury routes under /api/v1.
//
// Order: request id, recovery, request logging, security headers, CORS, body
// limit, tracing, metrics, profiling labels; then on /api/v1: JWT, span enrichment,
// idempotency.
func NewEngine(cfg EngineConfig, system *handler.SystemHandler, treasury TreasuryHandlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetricsWithMeter(cfg.Meter, cfg.Meter != nil)
	if err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(cfg.Tracing),
		httpMetrics,
		middleware.Profiling(cfg.Profiling, "/health", "/ready"),
	)

	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.ErrCodeRouteNotFound,
			"No route for "+c.Request.Method+" "+c.Request.URL.Path,
			middleware.GetRequestID(c),
		))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))

	jwtCfg := cfg.JWT
	if jwtCfg.Logger == nil {
		jwtCfg.Logger = log
	}
	jwtCfg.SkipPaths = append(jwtCfg.SkipPaths, r.BasePath()+"/system/info")

	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.SpanEnricher(),
		middleware.Idempotency(cfg.Idempotency),
	)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", system.GetSystemInfo)

	r.Register(systemRoutes).
		Register(NewTreasuryRoutes(treasury)).
		Setup()

	return engine, nil
}
