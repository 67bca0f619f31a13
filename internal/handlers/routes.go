package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	"lambda-http-router/internal/config"
	"lambda-http-router/internal/metrics"
	"lambda-http-router/internal/middleware"
	"lambda-http-router/pkg/dispatch"
	"lambda-http-router/pkg/manifest"
	"lambda-http-router/pkg/registry"
)

// GatewayPrefix is reserved for the local gateway's own endpoints. Every
// other path is forwarded to the dispatcher.
const GatewayPrefix = "/_gateway"

// Version is reported by the health endpoint and the swagger document
const Version = "1.0.0"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Config      *config.Config
	Dispatcher  *dispatch.Dispatcher
	AuthService *middleware.AuthService
	Metrics     *metrics.DispatchMetrics
}

// SetupRoutes configures the gateway endpoints and the catch-all proxy
func SetupRoutes(router *gin.Engine, cfg *RouterConfig) error {
	// Path matching belongs to the dispatcher, not gin
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false

	routes := manifest.Build(cfg.Dispatcher.Table())
	if err := RegisterSwagger(routes, APIInfo{
		Title:       "lambda-http-router",
		Version:     Version,
		Description: "Routes served by the API Gateway dispatcher",
	}); err != nil {
		return err
	}

	gw := router.Group(GatewayPrefix)
	{
		gw.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(swag.Name)))

		gw.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"service": "lambda-http-router",
				"version": Version,
				"routes":  cfg.Dispatcher.Table().Len(),
			})
		})

		gw.GET("/routes", func(c *gin.Context) {
			c.JSON(http.StatusOK, routes)
		})

		if cfg.Metrics != nil {
			gw.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
		}
	}

	proxy := NewGatewayHandler(cfg.Dispatcher, cfg.Config.Environment)
	router.NoRoute(
		middleware.OptionalAuthentication(cfg.AuthService),
		middleware.RouteAuthorizer(AuthLookup(cfg.Dispatcher)),
		proxy.Proxy,
	)
	return nil
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, cfg *config.Config) {
	// Request ID
	router.Use(middleware.RequestID())

	// Requests the dispatcher never sees
	router.Use(middleware.GatewayLogger())

	// CORS
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Security headers
	router.Use(middleware.SecurityHeaders())

	// API Gateway payload limit
	router.Use(middleware.RequestSizeLimit(middleware.MaxPayloadSize))

	// Rate limiting
	router.Use(middleware.RateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	// Performance monitoring (log requests over 1 second)
	router.Use(middleware.PerformanceMonitor(time.Second))

	router.Use(gin.Recovery())
}

// SetupDevelopmentRoutes adds development-only routes
func SetupDevelopmentRoutes(router *gin.Engine, cfg *RouterConfig) {
	if cfg.Config.IsProduction() || !cfg.AuthService.Enabled() {
		return
	}
	authHandler := NewAuthHandler(cfg.AuthService)
	router.POST(GatewayPrefix+"/token", authHandler.IssueToken)
}

// AuthLookup resolves route auth requirements from the dispatcher's table
func AuthLookup(d *dispatch.Dispatcher) middleware.AuthLookup {
	return func(method, path string) *registry.AuthRequirement {
		m, ok := registry.ParseMethod(method)
		if !ok {
			return nil
		}
		entry, ok := d.Lookup(m, path)
		if !ok {
			return nil
		}
		return entry.Auth
	}
}
