package server

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-http-router/internal/config"
	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/registry"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Port:        "8080",
		Log:         config.LogConfig{Level: "error", Format: "text"},
		Routes:      config.RoutesConfig{InferPathFromName: true, ManifestFile: "routes.manifest.json"},
		JWT:         config.JWTConfig{Secret: "secret", Issuer: "test"},
	}
}

func listOrders() []string { return []string{"a", "b"} }

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(), func(b *registry.Builder) error {
		return b.Register(listOrders, registry.MethodGet, "")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, container.Table.Len())
	assert.True(t, container.AuthService.Enabled())
	assert.Equal(t, 1.0, metricValue(t, container, "lambda_http_router_registry_routes"))

	ev := &lambda.Event{
		Shape: lambda.ShapeREST,
		REST:  &events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/list-orders"},
	}
	resp, _ := container.Dispatcher.Dispatch(context.Background(), ev)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `["a","b"]`, resp.Body)

	assert.Equal(t, 1.0, metricValue(t, container, "lambda_http_router_dispatch_requests_total"))
}

func TestNewContainer_UnsupportedMethodsShareSeries(t *testing.T) {
	container, err := NewContainer(testConfig(), func(b *registry.Builder) error {
		return b.Register(listOrders, registry.MethodGet, "")
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		ev := &lambda.Event{
			Shape: lambda.ShapeREST,
			REST:  &events.APIGatewayProxyRequest{HTTPMethod: fmt.Sprintf("X%d", i), Path: "/list-orders"},
		}
		resp, _ := container.Dispatcher.Dispatch(context.Background(), ev)
		assert.Equal(t, 405, resp.StatusCode)
	}

	assert.Equal(t, 1, metricSeries(t, container, "lambda_http_router_dispatch_requests_total"))
	assert.Equal(t, 50.0, metricValue(t, container, "lambda_http_router_dispatch_requests_total"))
}

func metricSeries(t *testing.T, c *Container, name string) int {
	t.Helper()

	families, err := c.Metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return len(family.GetMetric())
		}
	}
	return 0
}

func metricValue(t *testing.T, c *Container, name string) float64 {
	t.Helper()

	families, err := c.Metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewContainer_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Port = ""
		_, err := NewContainer(cfg, func(*registry.Builder) error { return nil })
		assert.Error(t, err)
	})

	t.Run("register failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewContainer(testConfig(), func(*registry.Builder) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("incomplete route", func(t *testing.T) {
		_, err := NewContainer(testConfig(), func(b *registry.Builder) error {
			return b.RegisterAuth(listOrders, nil)
		})
		require.Error(t, err)
		assert.True(t, registry.IsConfigError(err))
	})
}
