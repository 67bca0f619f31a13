// Package lambda holds the types shared between route handlers and the
// dispatcher: the inbound event, the per-request context handed to handlers,
// and the response value handlers return.
package lambda

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Shape identifies which API Gateway payload format an event uses
type Shape int

const (
	// ShapeREST is the API Gateway REST API payload (version 1.0)
	ShapeREST Shape = iota
	// ShapeHTTP is the API Gateway HTTP API payload (version 2.0)
	ShapeHTTP
)

// String returns the payload version for the shape
func (s Shape) String() string {
	if s == ShapeHTTP {
		return "2.0"
	}
	return "1.0"
}

// Event is one decoded invocation event. Exactly one of REST or HTTP is set,
// according to Shape.
type Event struct {
	Shape Shape
	REST  *events.APIGatewayProxyRequest
	HTTP  *events.APIGatewayV2HTTPRequest
	Raw   json.RawMessage
}

// Claims are the authorizer claims attached to a request by the edge
type Claims map[string]any

// String returns the claim as a string, or "" when missing or not a string
func (c Claims) String(key string) string {
	if c == nil {
		return ""
	}
	if s, ok := c[key].(string); ok {
		return s
	}
	return ""
}

// Response is the structured value a handler may return
type Response struct {
	StatusCode      int
	Headers         map[string]string
	Body            string
	Cookies         []string
	IsBase64Encoded bool
}

// BodyLoader resolves the request body on first use.
// Value returns the parsed body, Raw the decoded body text.
type BodyLoader interface {
	Value() (any, error)
	Raw() string
}

// Context is the request view passed to handlers for every argument position
// without an explicit binding. It embeds the invocation context.Context.
type Context struct {
	context.Context

	Event     *Event
	Lambda    *lambdacontext.LambdaContext
	RequestID string
	Method    string
	Path      string
	Params    map[string]string
	Query     map[string]string
	Headers   map[string]string
	Auth      Claims
	Response  Responder

	body BodyLoader
}

// SetBody installs the loader backing Body and Bind
func (c *Context) SetBody(loader BodyLoader) {
	c.body = loader
}

// Body returns the parsed request body. JSON bodies are decoded, other
// content types are returned as the raw string; an empty body yields nil.
func (c *Context) Body() (any, error) {
	if c.body == nil {
		return nil, nil
	}
	return c.body.Value()
}

// Bind decodes the raw request body as JSON into v
func (c *Context) Bind(v any) error {
	raw := ""
	if c.body != nil {
		raw = c.body.Raw()
	}
	if strings.TrimSpace(raw) == "" {
		return NewHTTPError(400, "Request body is required")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return NewHTTPError(400, "Invalid JSON body", WithCause(err))
	}
	return nil
}

// Header returns a request header, matched case-insensitively
func (c *Context) Header(name string) string {
	return c.Headers[strings.ToLower(name)]
}

// Param returns a path parameter
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// QueryValue returns a query string parameter
func (c *Context) QueryValue(name string) string {
	return c.Query[name]
}
