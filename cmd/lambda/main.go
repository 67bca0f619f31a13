package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"lambda-http-router/examples/routes"
	"lambda-http-router/internal/config"
	"lambda-http-router/pkg/dispatch"
	"lambda-http-router/pkg/server"
)

func init() {
	dispatch.Init(newDispatcher)
}

// newDispatcher runs once, on the first call to dispatch.Default
func newDispatcher() (*dispatch.Dispatcher, error) {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := server.NewContainer(cfg, routes.New().Register)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return container.Dispatcher, nil
}

func main() {
	if err := dispatch.Start(); err != nil {
		logrus.WithError(err).Fatal("Failed to start Lambda handler")
	}
}
