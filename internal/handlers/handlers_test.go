package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-http-router/internal/config"
	"lambda-http-router/internal/metrics"
	"lambda-http-router/internal/middleware"
	"lambda-http-router/pkg/dispatch"
	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/manifest"
	"lambda-http-router/pkg/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func hello() string { return "hello" }

func getItem(id string) map[string]string { return map[string]string{"id": id} }

func removeItem(id string) string { return "deleted " + id }

func adminOnly(claims lambda.Claims) string { return claims.String("sub") }

func echo(body map[string]any) map[string]any { return body }

func setCookie() *lambda.Response {
	resp := lambda.Text(http.StatusOK, "ok")
	resp.Cookies = []string{"session=abc; Path=/"}
	return resp
}

type testGateway struct {
	router *gin.Engine
	auth   *middleware.AuthService
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	b := registry.NewBuilder()
	require.NoError(t, b.Register(hello, registry.MethodGet, "/hello"))
	require.NoError(t, b.Register(getItem, registry.MethodGet, "/items/{id}"))
	require.NoError(t, b.RegisterParameter(getItem, registry.Param(0, "id")))
	require.NoError(t, b.Register(removeItem, registry.MethodDelete, "/items/{id}"))
	require.NoError(t, b.RegisterParameter(removeItem, registry.Param(0, "id")))
	require.NoError(t, b.RegisterAuth(removeItem, &registry.AuthOptions{Roles: []string{"admin"}}))
	require.NoError(t, b.Register(adminOnly, registry.MethodGet, "/admin"))
	require.NoError(t, b.RegisterAuth(adminOnly, &registry.AuthOptions{Roles: []string{"admin"}}))
	require.NoError(t, b.RegisterParameter(adminOnly, registry.Auth(0)))
	require.NoError(t, b.Register(echo, registry.MethodPost, "/echo"))
	require.NoError(t, b.RegisterParameter(echo, registry.Body(0, nil)))
	require.NoError(t, b.Register(setCookie, registry.MethodGet, "/cookie"))
	table, err := b.Finalize()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d, err := dispatch.New(table, dispatch.WithLogger(logger))
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	auth := middleware.NewAuthService(&middleware.AuthConfig{JWTSecret: "test-secret"})
	rc := &RouterConfig{
		Config:      cfg,
		Dispatcher:  d,
		AuthService: auth,
		Metrics:     metrics.NewDispatchMetrics("test", nil),
	}

	router := gin.New()
	SetupMiddleware(router, cfg)
	require.NoError(t, SetupRoutes(router, rc))
	SetupDevelopmentRoutes(router, rc)
	return &testGateway{router: router, auth: auth}
}

func (g *testGateway) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func TestGateway_Proxy(t *testing.T) {
	gw := newTestGateway(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		{name: "plain string", method: http.MethodGet, path: "/hello", wantStatus: http.StatusOK, wantBody: "hello"},
		{name: "path param", method: http.MethodGet, path: "/items/42", wantStatus: http.StatusOK, wantBody: `{"id":"42"}`},
		{name: "encoded param", method: http.MethodGet, path: "/items/a%20b", wantStatus: http.StatusOK, wantBody: `{"id":"a b"}`},
		{name: "trailing slash", method: http.MethodGet, path: "/HELLO/", wantStatus: http.StatusOK, wantBody: "hello"},
		{name: "json body", method: http.MethodPost, path: "/echo", body: `{"a":1}`, wantStatus: http.StatusOK, wantBody: `{"a":1}`},
		{name: "invalid json", method: http.MethodPost, path: "/echo", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "not found", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound, wantBody: `{"message":"Not Found"}`},
		{
			name: "method not allowed", method: http.MethodDelete, path: "/hello",
			wantStatus: http.StatusMethodNotAllowed, wantHeader: map[string]string{"Allow": "GET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			w := gw.do(req)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				if strings.HasPrefix(tt.wantBody, "{") {
					assert.JSONEq(t, tt.wantBody, w.Body.String())
				} else {
					assert.Equal(t, tt.wantBody, w.Body.String())
				}
			}
			for name, value := range tt.wantHeader {
				assert.Equal(t, value, w.Header().Get(name))
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestGateway_Cookies(t *testing.T) {
	gw := newTestGateway(t)

	w := gw.do(httptest.NewRequest(http.MethodGet, "/cookie", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"session=abc; Path=/"}, w.Header().Values("Set-Cookie"))
}

func TestGateway_Authorizer(t *testing.T) {
	gw := newTestGateway(t)

	adminToken, err := gw.auth.GenerateToken("user-1", "admin@example.com", []string{"admin"})
	require.NoError(t, err)
	userToken, err := gw.auth.GenerateToken("user-2", "user@example.com", []string{"user"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "missing token", wantStatus: http.StatusUnauthorized, wantBody: `{"message":"Unauthorized"}`},
		{name: "bad token", token: "nope", wantStatus: http.StatusUnauthorized},
		{name: "missing role", token: userToken, wantStatus: http.StatusForbidden, wantBody: `{"message":"Forbidden"}`},
		{name: "admin", token: adminToken, wantStatus: http.StatusOK, wantBody: "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := gw.do(req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if strings.HasPrefix(tt.wantBody, "{") {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			} else if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestGateway_AuthorizerEncodedPath(t *testing.T) {
	gw := newTestGateway(t)

	adminToken, err := gw.auth.GenerateToken("user-1", "admin@example.com", []string{"admin"})
	require.NoError(t, err)

	for _, path := range []string{"/items/42", "/items/a%2Fb", "/items/a%2F..%2Fb"} {
		t.Run(path, func(t *testing.T) {
			w := gw.do(httptest.NewRequest(http.MethodDelete, path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodDelete, "/items/a%2Fb", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := gw.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deleted a/b", w.Body.String())
}

func TestGateway_Endpoints(t *testing.T) {
	gw := newTestGateway(t)

	t.Run("health", func(t *testing.T) {
		w := gw.do(httptest.NewRequest(http.MethodGet, GatewayPrefix+"/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.EqualValues(t, 6, body["routes"])
	})

	t.Run("routes", func(t *testing.T) {
		w := gw.do(httptest.NewRequest(http.MethodGet, GatewayPrefix+"/routes", nil))
		require.Equal(t, http.StatusOK, w.Code)

		m, err := manifest.Decode(w.Body, manifest.FormatJSON)
		require.NoError(t, err)
		route, ok := m.Find("GET", "/items/{id}")
		require.True(t, ok)
		assert.Equal(t, manifest.AuthNone, route.Auth.Type)
	})

	t.Run("metrics", func(t *testing.T) {
		gw.do(httptest.NewRequest(http.MethodGet, "/hello", nil))
		w := gw.do(httptest.NewRequest(http.MethodGet, GatewayPrefix+"/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, GatewayPrefix+"/token",
			strings.NewReader(`{"subject":"dev","roles":["admin"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := gw.do(req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		claims, err := gw.auth.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "dev", claims.Subject)

		admin := httptest.NewRequest(http.MethodGet, "/admin", nil)
		admin.Header.Set("Authorization", "Bearer "+resp.Token)
		assert.Equal(t, http.StatusOK, gw.do(admin).Code)
	})

	t.Run("token requires subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, GatewayPrefix+"/token", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "req-token")
		w := gw.do(req)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Invalid request body", body.Error)
		assert.Equal(t, "req-token", body.RequestID)
		assert.NotEmpty(t, body.Timestamp)
	})
}

func TestBuildSwagger(t *testing.T) {
	m := &manifest.Manifest{Routes: []manifest.Route{
		{Method: "GET", Path: "/users/{id}", Auth: manifest.Auth{Type: manifest.AuthNone}, Handler: "getUser"},
		{Method: "POST", Path: "/files/{proxy+}", Auth: manifest.Auth{Type: manifest.AuthFirebase, Roles: []string{"admin"}}, Handler: "upload"},
	}}

	raw, err := BuildSwagger(m, APIInfo{Title: "test", Version: "1"})
	require.NoError(t, err)

	var doc struct {
		Swagger string `json:"swagger"`
		Paths   map[string]map[string]struct {
			OperationID string                `json:"operationId"`
			Parameters  []map[string]any      `json:"parameters"`
			Security    []map[string][]string `json:"security"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2.0", doc.Swagger)

	get := doc.Paths["/users/{id}"]["get"]
	assert.Equal(t, "getUser", get.OperationID)
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "id", get.Parameters[0]["name"])
	assert.Empty(t, get.Security)

	post := doc.Paths["/files/{proxy+}"]["post"]
	require.Len(t, post.Parameters, 2)
	assert.Equal(t, "proxy", post.Parameters[0]["name"])
	assert.Equal(t, "body", post.Parameters[1]["in"])
	require.Len(t, post.Security, 1)
	assert.Contains(t, post.Security[0], "BearerAuth")
}

func TestIsTextBody(t *testing.T) {
	tests := []struct {
		contentType string
		body        []byte
		want        bool
	}{
		{"application/json", []byte(`{}`), true},
		{"application/vnd.api+json", []byte(`{}`), true},
		{"text/plain; charset=utf-8", []byte("hi"), true},
		{"application/octet-stream", []byte("hi"), false},
		{"", []byte("hi"), true},
		{"", []byte{0xff, 0xfe}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isTextBody(tt.contentType, tt.body), tt.contentType)
	}
}
