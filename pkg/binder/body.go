// Package binder resolves handler arguments from a normalized request.
package binder

import (
	"encoding/json"
	"net/http"
	"strings"

	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/registry"
)

// Body parses a request body at most once. It is local to one invocation
// and not safe for concurrent use.
type Body struct {
	raw       string
	parseJSON bool

	parsed bool
	value  any
	err    error

	validated map[int]result
}

type result struct {
	value any
	err   error
}

// NewBody returns a loader for raw. The body is decoded as JSON when the
// content type is JSON-like or forceJSON is set.
func NewBody(raw, contentType string, forceJSON bool) *Body {
	return &Body{
		raw:       raw,
		parseJSON: forceJSON || IsJSONContentType(contentType),
		validated: make(map[int]result),
	}
}

// IsJSONContentType reports whether contentType names a JSON media type
func IsJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// Raw returns the body text
func (b *Body) Raw() string {
	return b.raw
}

// Value returns the parsed body. A blank body is nil.
func (b *Body) Value() (any, error) {
	if b.parsed {
		return b.value, b.err
	}
	b.parsed = true

	if strings.TrimSpace(b.raw) == "" {
		return nil, nil
	}
	if !b.parseJSON {
		b.value = b.raw
		return b.value, nil
	}

	var v any
	if err := json.Unmarshal([]byte(b.raw), &v); err != nil {
		b.err = lambda.NewHTTPError(http.StatusBadRequest, "Invalid JSON body", lambda.WithCause(err))
		return nil, b.err
	}
	b.value = v
	return b.value, nil
}

// Validated returns the body after the validator of the binding at position
// has run. Each position is validated once.
func (b *Body) Validated(position int, v registry.Validator) (any, error) {
	value, err := b.Value()
	if err != nil || v == nil {
		return value, err
	}
	if r, ok := b.validated[position]; ok {
		return r.value, r.err
	}

	var out any
	if rv, ok := v.(RawValidator); ok {
		out, err = rv.ValidateRaw(b.raw)
	} else {
		out, err = v.Validate(value)
	}
	if err != nil {
		err = validationFailed(err)
		out = nil
	}
	b.validated[position] = result{value: out, err: err}
	return out, err
}

func validationFailed(err error) error {
	opts := []lambda.ErrorOption{lambda.WithCause(err)}
	if details := fieldErrors(err); len(details) > 0 {
		opts = append(opts, lambda.WithDetails(details))
	}
	return lambda.NewHTTPError(http.StatusBadRequest, "Body validation failed", opts...)
}
