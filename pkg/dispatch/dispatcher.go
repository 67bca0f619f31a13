// Package dispatch wires the router, normalizer, binder and response
// formatter into the Lambda entry point.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-http-router/pkg/binder"
	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/normalize"
	"lambda-http-router/pkg/registry"
	"lambda-http-router/pkg/response"
	"lambda-http-router/pkg/router"
)

// OtherMethod is the method reported to observers for requests whose verb
// is missing or unsupported.
const OtherMethod = "OTHER"

// Observer is notified once per dispatched request. method is a supported
// verb or OtherMethod; route is the matched template, or "" when no route
// matched.
type Observer interface {
	ObserveDispatch(method, route string, status int, elapsed time.Duration)
}

// Dispatcher routes invocation events to registered handlers. It is
// read-only after New and safe for concurrent use.
type Dispatcher struct {
	table    *registry.Table
	router   *router.Router
	logger   logrus.FieldLogger
	observer Observer
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger; the logrus standard logger is the default
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithObserver registers an observer for completed requests
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// New builds a dispatcher for table
func New(table *registry.Table, opts ...Option) (*Dispatcher, error) {
	r, err := router.New(table.Entries())
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		table:  table,
		router: r,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Table returns the route table the dispatcher serves
func (d *Dispatcher) Table() *registry.Table {
	return d.table
}

// Lookup returns the entry serving method and path, if any
func (d *Dispatcher) Lookup(method registry.Method, path string) (*registry.Entry, bool) {
	match := d.router.Find(method, path)
	if match.Kind != router.Found {
		return nil, false
	}
	return match.Entry, true
}

// Handle is the Lambda handler. It never returns an error; every failure is
// rendered as a response.
func (d *Dispatcher) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	ev, err := normalize.Decode(raw)
	if err != nil {
		d.logger.WithError(err).Warn("Rejected invocation event")
		resp := response.InvalidRequest()
		d.observe(OtherMethod, "", resp.StatusCode, 0)
		return response.FormatREST(resp), nil
	}

	resp, shape := d.Dispatch(ctx, ev)
	return response.Format(resp, shape), nil
}

// outcome carries what the request log needs about one dispatch. method is
// the raw verb for the log, verb the parsed one for observers.
type outcome struct {
	method    string
	verb      string
	path      string
	route     string
	requestID string
}

// Dispatch runs one decoded event through routing and the matched handler
func (d *Dispatcher) Dispatch(ctx context.Context, ev *lambda.Event) (*lambda.Response, lambda.Shape) {
	start := time.Now()
	out := &outcome{verb: OtherMethod}

	resp := d.dispatch(ctx, ev, out)
	latency := time.Since(start)

	fields := logrus.Fields{
		"request_id":  out.requestID,
		"method":      out.method,
		"path":        out.path,
		"route":       out.route,
		"status_code": resp.StatusCode,
		"latency_ms":  float64(latency.Nanoseconds()) / 1000000,
	}
	switch {
	case resp.StatusCode >= 500:
		d.logger.WithFields(fields).Error("Server error")
	case resp.StatusCode >= 400:
		d.logger.WithFields(fields).Warn("Client error")
	default:
		d.logger.WithFields(fields).Info("Request completed")
	}
	d.observe(out.verb, out.route, resp.StatusCode, latency)

	if ev == nil {
		return resp, lambda.ShapeREST
	}
	return resp, ev.Shape
}

func (d *Dispatcher) dispatch(ctx context.Context, ev *lambda.Event, out *outcome) *lambda.Response {
	rawMethod, path := normalize.Target(ev)
	out.method, out.path = rawMethod, path
	if rawMethod == "" || path == "" {
		return response.InvalidRequest()
	}

	method, ok := registry.ParseMethod(rawMethod)
	if !ok {
		return response.UnsupportedMethod()
	}
	out.method, out.verb = string(method), string(method)

	match := d.router.Find(method, path)
	switch match.Kind {
	case router.NoMatch:
		return response.NotFound()
	case router.MethodNotAllowed:
		return response.MethodNotAllowed(match.AllowHeader())
	}

	out.route = match.Entry.Path
	return d.invoke(ctx, ev, match, out)
}

func (d *Dispatcher) invoke(ctx context.Context, ev *lambda.Event, match router.Match, out *outcome) (resp *lambda.Response) {
	entry := match.Entry
	logger := d.logger.WithFields(logrus.Fields{"handler": entry.Name, "route": entry.Path})

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			resp = response.Error(fmt.Errorf("panic in handler: %w", err), logger)
		}
	}()

	withClaims := entry.Auth != nil && entry.Auth.Scheme == registry.SchemeFirebase
	req, err := normalize.Normalize(ev, withClaims)
	if err != nil {
		return response.Error(err, logger)
	}
	out.requestID = req.RequestID
	logger = logger.WithField("request_id", req.RequestID)

	body := binder.NewBody(req.RawBody, req.Headers["content-type"], entry.RequiresBody())
	hc := binder.NewContext(ctx, req, match.Params, body)

	args, err := binder.Arguments(entry, hc, body)
	if err != nil {
		return response.Error(err, logger)
	}

	result, err := entry.Invoke(args)
	if err != nil {
		return response.Error(err, logger)
	}
	return response.Interpret(result)
}

func (d *Dispatcher) observe(method, route string, status int, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveDispatch(method, route, status, elapsed)
	}
}
