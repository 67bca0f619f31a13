package binder

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/normalize"
	"lambda-http-router/pkg/registry"
)

// NewContext builds the handler context for one matched request
func NewContext(ctx context.Context, req *normalize.Request, params map[string]string, body *Body) *lambda.Context {
	if params == nil {
		params = map[string]string{}
	}
	lc, _ := lambdacontext.FromContext(ctx)

	hc := &lambda.Context{
		Context:   ctx,
		Event:     req.Event,
		Lambda:    lc,
		RequestID: req.RequestID,
		Method:    req.Method,
		Path:      req.Path,
		Params:    params,
		Query:     req.Query,
		Headers:   req.Headers,
		Auth:      req.Claims,
		Response:  lambda.Responder{},
	}
	hc.SetBody(body)
	return hc
}

// Arguments projects the request onto the entry's argument positions.
// Positions without a binding receive hc itself. Bindings are within the
// handler's arity once the table is finalized.
func Arguments(entry *registry.Entry, hc *lambda.Context, body *Body) ([]any, error) {
	length := max(entry.Arity(), 1)

	args := make([]any, length)
	bound := make([]bool, length)
	for _, b := range entry.Bindings {
		v, err := project(entry, b, hc, body)
		if err != nil {
			return nil, err
		}
		args[b.Position] = v
		bound[b.Position] = true
	}
	for i := range args {
		if !bound[i] {
			args[i] = hc
		}
	}
	return args, nil
}

func project(entry *registry.Entry, b registry.Binding, hc *lambda.Context, body *Body) (any, error) {
	switch b.Kind {
	case registry.KindBody:
		v, err := body.Validated(b.Position, b.Validator)
		if err != nil {
			return nil, err
		}
		return bodyArgument(v, entry.ParamType(b.Position))
	case registry.KindQuery:
		return named(hc.Query, b.Name), nil
	case registry.KindParams:
		return named(hc.Params, b.Name), nil
	case registry.KindHeaders:
		return named(hc.Headers, b.Name), nil
	case registry.KindRequest:
		return hc.Event, nil
	case registry.KindResponse:
		return hc.Response, nil
	case registry.KindAuth:
		if hc.Auth == nil {
			return nil, nil
		}
		return hc.Auth, nil
	}
	return hc, nil
}

func named(values map[string]string, name string) any {
	if name == "" {
		return values
	}
	return values[name]
}

// bodyArgument adapts a parsed body to the declared parameter type,
// re-decoding generic JSON values into concrete types.
func bodyArgument(v any, param reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(param) {
		return v, nil
	}
	if vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(param) {
		return reflect.ValueOf(v).Elem().Interface(), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, validationFailed(err)
	}
	out := reflect.New(param)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return nil, lambda.NewHTTPError(http.StatusBadRequest, "Body validation failed", lambda.WithCause(err))
	}
	return out.Elem().Interface(), nil
}
