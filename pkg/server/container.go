package server

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"lambda-http-router/internal/config"
	"lambda-http-router/internal/metrics"
	"lambda-http-router/internal/middleware"
	"lambda-http-router/pkg/dispatch"
	"lambda-http-router/pkg/registry"
)

// MetricsNamespace prefixes every dispatcher metric
const MetricsNamespace = "lambda_http_router"

// RegisterFunc adds an application's routes to the builder
type RegisterFunc func(b *registry.Builder) error

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Table       *registry.Table
	Dispatcher  *dispatch.Dispatcher
	Metrics     *metrics.DispatchMetrics
	AuthService *middleware.AuthService
}

// NewContainer configures logging, builds the route table from register and
// wires the dispatcher with its metrics observer
func NewContainer(cfg *config.Config, register RegisterFunc) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.ConfigureLogging(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	table, err := BuildTable(cfg, register)
	if err != nil {
		return nil, err
	}

	dispatchMetrics := metrics.NewDispatchMetrics(MetricsNamespace, nil)
	dispatchMetrics.SetRoutes(table.Len())

	dispatcher, err := dispatch.New(table,
		dispatch.WithLogger(logger),
		dispatch.WithObserver(dispatchMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	container := &Container{
		Config:     cfg,
		Logger:     logger,
		Table:      table,
		Dispatcher: dispatcher,
		Metrics:    dispatchMetrics,
		AuthService: middleware.NewAuthService(&middleware.AuthConfig{
			JWTSecret: cfg.JWT.Secret,
			Issuer:    cfg.JWT.Issuer,
		}),
	}

	logger.WithFields(logrus.Fields{
		"routes":      table.Len(),
		"environment": cfg.Environment,
		"mode":        config.GetDeploymentMode(),
	}).Info("Route table ready")

	return container, nil
}

// BuildTable runs register against a fresh builder configured from cfg
func BuildTable(cfg *config.Config, register RegisterFunc) (*registry.Table, error) {
	b := registry.NewBuilder(registry.WithInferPathFromName(cfg.Routes.InferPathFromName))
	if err := register(b); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	table, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize routes: %w", err)
	}
	return table, nil
}
