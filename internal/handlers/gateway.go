package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lambda-http-router/internal/middleware"
	"lambda-http-router/pkg/lambda"
)

// Dispatcher is the part of dispatch.Dispatcher the gateway needs
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *lambda.Event) (*lambda.Response, lambda.Shape)
}

// GatewayHandler turns local HTTP requests into HTTP API (payload 2.0)
// events, dispatches them and writes the result back
type GatewayHandler struct {
	dispatcher Dispatcher
	stage      string
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(dispatcher Dispatcher, stage string) *GatewayHandler {
	if stage == "" {
		stage = "$default"
	}
	return &GatewayHandler{
		dispatcher: dispatcher,
		stage:      stage,
	}
}

// Proxy forwards any request to the dispatcher
func (h *GatewayHandler) Proxy(c *gin.Context) {
	ev, err := h.buildEvent(c)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		abortWithError(c, status, "Invalid request", err)
		return
	}

	start := time.Now()
	resp, _ := h.dispatcher.Dispatch(c.Request.Context(), ev)
	middleware.MarkDispatched(c, time.Since(start))
	writeResponse(c, resp)
}

func (h *GatewayHandler) buildEvent(c *gin.Context) (*lambda.Event, error) {
	r := c.Request

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		key := strings.ToLower(name)
		if key == "cookie" {
			continue
		}
		headers[key] = strings.Join(values, ",")
	}
	if r.Host != "" {
		headers["host"] = r.Host
	}

	var cookies []string
	for _, cookie := range r.Cookies() {
		cookies = append(cookies, cookie.Name+"="+cookie.Value)
	}

	var query map[string]string
	if values := r.URL.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for name, v := range values {
			query[name] = strings.Join(v, ",")
		}
	}

	now := time.Now()
	req := events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              "$default",
		RawPath:               middleware.RequestPath(c),
		RawQueryString:        r.URL.RawQuery,
		Cookies:               cookies,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey:   "$default",
			AccountID:  "local",
			Stage:      h.stage,
			RequestID:  c.GetString(middleware.RequestIDKey),
			APIID:      "local",
			DomainName: r.Host,
			Time:       now.UTC().Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch:  now.UnixMilli(),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  c.ClientIP(),
				UserAgent: r.UserAgent(),
			},
		},
	}

	if len(body) > 0 {
		if isTextBody(headers["content-type"], body) {
			req.Body = string(body)
		} else {
			req.Body = base64.StdEncoding.EncodeToString(body)
			req.IsBase64Encoded = true
		}
	}

	if claims, ok := middleware.GetClaims(c); ok {
		req.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
				Claims: claims.AuthorizerClaims(),
			},
		}
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return &lambda.Event{Shape: lambda.ShapeHTTP, HTTP: &req, Raw: raw}, nil
}

// isTextBody mirrors what API Gateway passes through unencoded
func isTextBody(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "text/"),
		strings.Contains(ct, "json"),
		strings.Contains(ct, "xml"),
		strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		return true
	case ct == "":
		return utf8.Valid(body)
	default:
		return false
	}
}

func writeResponse(c *gin.Context, resp *lambda.Response) {
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	for name, value := range resp.Headers {
		c.Header(name, value)
	}
	for _, cookie := range resp.Cookies {
		c.Writer.Header().Add("Set-Cookie", cookie)
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			logrus.WithError(err).Error("Handler returned an invalid base64 body")
			abortWithError(c, http.StatusBadGateway, "Bad Gateway", err)
			return
		}
		body = decoded
	}

	c.Status(status)
	if len(body) == 0 || status == http.StatusNoContent || c.Request.Method == http.MethodHead {
		c.Writer.WriteHeaderNow()
		return
	}
	_, _ = c.Writer.Write(body)
}
