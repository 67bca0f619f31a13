// Package normalize flattens the two API Gateway payload formats into one
// request view used by the router and the binder.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"lambda-http-router/pkg/lambda"
)

// ErrUndecodable is returned when an invocation payload is not an API Gateway event
var ErrUndecodable = errors.New("undecodable invocation event")

// httpPayloadVersion marks HTTP API payloads
const httpPayloadVersion = "2.0"

type envelope struct {
	Version string `json:"version"`
}

// legacyTarget carries the REST-style fields some HTTP API producers still send
type legacyTarget struct {
	HTTPMethod string `json:"httpMethod"`
	Path       string `json:"path"`
}

// Decode detects the payload shape and decodes raw into the matching
// aws-lambda-go event type.
func Decode(raw []byte) (*lambda.Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty payload", ErrUndecodable)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	ev := &lambda.Event{Raw: json.RawMessage(raw)}
	if env.Version == httpPayloadVersion {
		var req events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		ev.Shape = lambda.ShapeHTTP
		ev.HTTP = &req
		return ev, nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	ev.Shape = lambda.ShapeREST
	ev.REST = &req
	return ev, nil
}

// Target returns the request method and raw path. Either may be empty when
// the event does not carry it.
func Target(ev *lambda.Event) (method, path string) {
	switch {
	case ev == nil:
		return "", ""
	case ev.HTTP != nil:
		method, path = ev.HTTP.RequestContext.HTTP.Method, ev.HTTP.RawPath
		if method == "" || path == "" {
			var legacy legacyTarget
			if len(ev.Raw) > 0 && json.Unmarshal(ev.Raw, &legacy) == nil {
				if method == "" {
					method = legacy.HTTPMethod
				}
				if path == "" {
					path = legacy.Path
				}
			}
		}
		return method, path
	case ev.REST != nil:
		return ev.REST.HTTPMethod, ev.REST.Path
	}
	return "", ""
}
