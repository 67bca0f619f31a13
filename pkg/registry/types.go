package registry

import (
	"reflect"
	"strings"
)

// Method is one of the HTTP verbs a route can be registered for
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

var supportedMethods = map[Method]struct{}{
	MethodGet:     {},
	MethodPost:    {},
	MethodPut:     {},
	MethodPatch:   {},
	MethodDelete:  {},
	MethodHead:    {},
	MethodOptions: {},
}

// ParseMethod upper-cases s and reports whether it is a supported verb
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(s))
	_, ok := supportedMethods[m]
	return m, ok
}

// Kind selects which request facet a handler argument receives
type Kind int

const (
	KindBody Kind = iota + 1
	KindQuery
	KindParams
	KindHeaders
	KindRequest
	KindResponse
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindQuery:
		return "query"
	case KindParams:
		return "param"
	case KindHeaders:
		return "headers"
	case KindRequest:
		return "req"
	case KindResponse:
		return "res"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Validator checks (and may transform) a parsed request body
type Validator interface {
	Validate(body any) (any, error)
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(body any) (any, error)

// Validate calls f(body)
func (f ValidatorFunc) Validate(body any) (any, error) {
	return f(body)
}

// TypedValidator is implemented by validators that know the Go type they
// produce, which lets Finalize check it against the handler signature.
type TypedValidator interface {
	Validator
	OutputType() reflect.Type
}

// Binding maps one handler argument position to a request facet
type Binding struct {
	Position  int
	Kind      Kind
	Validator Validator // Body only
	Name      string    // Query, Params and Headers: project a single named value
}

// Body binds the parsed request body, optionally validated
func Body(position int, validator Validator) Binding {
	return Binding{Position: position, Kind: KindBody, Validator: validator}
}

// Query binds the query map, or a single query value when name is set
func Query(position int, name string) Binding {
	return Binding{Position: position, Kind: KindQuery, Name: name}
}

// Param binds the path parameters, or a single parameter when name is set
func Param(position int, name string) Binding {
	return Binding{Position: position, Kind: KindParams, Name: name}
}

// Headers binds the lower-cased header map
func Headers(position int) Binding {
	return Binding{Position: position, Kind: KindHeaders}
}

// Header binds a single header value
func Header(position int, name string) Binding {
	return Binding{Position: position, Kind: KindHeaders, Name: strings.ToLower(name)}
}

// Req binds the raw invocation event
func Req(position int) Binding {
	return Binding{Position: position, Kind: KindRequest}
}

// Res binds the response helpers
func Res(position int) Binding {
	return Binding{Position: position, Kind: KindResponse}
}

// Auth binds the authorizer claims
func Auth(position int) Binding {
	return Binding{Position: position, Kind: KindAuth}
}

// SchemeFirebase is the only supported auth scheme: JWT claims forwarded by
// the API Gateway authorizer.
const SchemeFirebase = "firebase"

// AuthOptions configures RegisterAuth
type AuthOptions struct {
	Optional *bool
	Roles    []string
}

// AuthRequirement is the auth metadata attached to a route. It feeds
// claims extraction and the manifest; enforcement happens at the edge.
type AuthRequirement struct {
	Scheme   string
	Optional *bool
	Roles    []string
}

// IsOptional reports whether unauthenticated requests are allowed through
func (a *AuthRequirement) IsOptional() bool {
	return a != nil && a.Optional != nil && *a.Optional
}

// Options configures a Builder
type Options struct {
	// InferPathFromName derives a kebab-case path from the handler name
	// when Register is called without one.
	InferPathFromName bool
}

// Option mutates Options
type Option func(*Options)

// WithInferPathFromName enables or disables path inference
func WithInferPathFromName(enabled bool) Option {
	return func(o *Options) {
		o.InferPathFromName = enabled
	}
}
