package normalize

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"lambda-http-router/pkg/lambda"
)

// Request is the shape-independent view of one invocation
type Request struct {
	Method    string
	Path      string
	Headers   map[string]string // keys lower-cased
	Query     map[string]string
	RawBody   string
	Claims    lambda.Claims
	Shape     lambda.Shape
	RequestID string
	Event     *lambda.Event
}

// Normalize builds the request view for ev. Claims are only extracted when
// withClaims is set, which callers do for routes declaring an auth scheme.
func Normalize(ev *lambda.Event, withClaims bool) (*Request, error) {
	if ev == nil || (ev.HTTP == nil && ev.REST == nil) {
		return nil, ErrUndecodable
	}

	method, path := Target(ev)
	req := &Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Shape:  ev.Shape,
		Event:  ev,
	}

	var (
		body      string
		isBase64  bool
		requestID string
	)
	switch {
	case ev.HTTP != nil:
		req.Headers = lowerHeaders(ev.HTTP.Headers, nil)
		if _, ok := req.Headers["cookie"]; !ok && len(ev.HTTP.Cookies) > 0 {
			req.Headers["cookie"] = strings.Join(ev.HTTP.Cookies, "; ")
		}
		req.Query = mergeQuery(ev.HTTP.QueryStringParameters, nil)
		body, isBase64 = ev.HTTP.Body, ev.HTTP.IsBase64Encoded
		requestID = ev.HTTP.RequestContext.RequestID
		if withClaims {
			req.Claims = httpClaims(ev)
		}
	default:
		req.Headers = lowerHeaders(ev.REST.Headers, ev.REST.MultiValueHeaders)
		req.Query = mergeQuery(ev.REST.QueryStringParameters, ev.REST.MultiValueQueryStringParameters)
		body, isBase64 = ev.REST.Body, ev.REST.IsBase64Encoded
		requestID = ev.REST.RequestContext.RequestID
		if withClaims {
			req.Claims = restClaims(ev)
		}
	}

	if isBase64 && body != "" {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, lambda.NewHTTPError(http.StatusBadRequest, "Invalid request body", lambda.WithCause(err))
		}
		body = string(decoded)
	}
	req.RawBody = body

	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.RequestID = requestID

	return req, nil
}

func lowerHeaders(single map[string]string, multi map[string][]string) map[string]string {
	headers := make(map[string]string, len(single))
	for k, v := range single {
		headers[strings.ToLower(k)] = v
	}
	for k, values := range multi {
		key := strings.ToLower(k)
		if _, ok := headers[key]; ok || len(values) == 0 {
			continue
		}
		headers[key] = strings.Join(values, ",")
	}
	return headers
}

// mergeQuery overlays the multi-value map on the single one; the last value
// of each list wins.
func mergeQuery(single map[string]string, multi map[string][]string) map[string]string {
	query := make(map[string]string, len(single))
	for k, v := range single {
		query[k] = v
	}
	for k, values := range multi {
		if len(values) == 0 {
			continue
		}
		query[k] = values[len(values)-1]
	}
	return query
}

func httpClaims(ev *lambda.Event) lambda.Claims {
	authorizer := ev.HTTP.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil || authorizer.JWT.Claims == nil {
		return nil
	}
	claims := make(lambda.Claims, len(authorizer.JWT.Claims))
	for k, v := range authorizer.JWT.Claims {
		claims[k] = v
	}
	return claims
}

func restClaims(ev *lambda.Event) lambda.Claims {
	raw, ok := ev.REST.RequestContext.Authorizer["claims"]
	if !ok {
		return nil
	}
	switch claims := raw.(type) {
	case map[string]any:
		return lambda.Claims(claims)
	case map[string]string:
		out := make(lambda.Claims, len(claims))
		for k, v := range claims {
			out[k] = v
		}
		return out
	}
	return nil
}
