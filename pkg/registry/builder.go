// Package registry collects per-handler routing metadata at cold start and
// seals it into an immutable Table the router and dispatcher read from.
//
// Registration is explicit: call Register, RegisterAuth and RegisterParameter
// for each handler, then Finalize once. After Finalize the builder rejects
// further changes.
package registry

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"lambda-http-router/pkg/lambda"
)

// Builder accumulates route metadata until Finalize seals it
type Builder struct {
	mu     sync.Mutex
	opts   Options
	drafts map[string]*draft
	order  []string
	sealed bool
}

type draft struct {
	name     string
	fn       reflect.Value
	method   Method
	path     string
	auth     *AuthRequirement
	bindings []Binding
	events   []string
}

// NewBuilder creates an open Builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{drafts: make(map[string]*draft)}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// Configure replaces the builder options. Call it before registering routes
// that rely on path inference.
func (b *Builder) Configure(opts Options) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts = opts
}

// Options returns the current options
func (b *Builder) Options() Options {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts
}

// Register records the HTTP method and path for handler. An empty path is
// inferred from the handler name when InferPathFromName is enabled.
func (b *Builder) Register(handler any, method Method, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := resolveHandler(handler)
	if err != nil {
		return err
	}
	if b.sealed {
		return NewConfigError(ref.name, ErrSealed, "cannot register after Finalize")
	}
	if !ref.fn.IsValid() || ref.fn.Kind() != reflect.Func || ref.fn.IsNil() {
		return NewConfigError(ref.name, ErrInvalidHandler, "handler must be a non-nil func")
	}
	if err := checkSignature(ref.name, ref.fn.Type()); err != nil {
		return err
	}

	m, ok := ParseMethod(string(method))
	if !ok {
		return NewConfigError(ref.name, ErrUnsupportedMethod, "method %q is not supported", method)
	}

	effective := path
	if effective == "" && b.opts.InferPathFromName && ref.name != anonymous {
		effective = InferPath(ref.name)
	}
	if effective == "" {
		return NewConfigError(ref.name, ErrMissingPath, "missing a path; provide one or enable path inference")
	}
	if !strings.HasPrefix(effective, "/") {
		effective = "/" + effective
	}

	d := b.draftFor(ref)
	if d.method != "" {
		return NewConfigError(ref.name, ErrDuplicateMethod, "already registered as %s %s", d.method, d.path)
	}
	d.fn = ref.fn
	d.method = m
	d.path = effective
	return nil
}

// RegisterAuth marks handler as requiring authorizer claims
func (b *Builder) RegisterAuth(handler any, opts *AuthOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := resolveHandler(handler)
	if err != nil {
		return err
	}
	if b.sealed {
		return NewConfigError(ref.name, ErrSealed, "cannot register auth after Finalize")
	}

	auth := &AuthRequirement{Scheme: SchemeFirebase}
	if opts != nil {
		auth.Optional = opts.Optional
		auth.Roles = append([]string(nil), opts.Roles...)
	}
	b.draftFor(ref).auth = auth
	return nil
}

// RegisterParameter adds a binding for one handler argument position.
// A second binding for a position already taken is a configuration error.
func (b *Builder) RegisterParameter(handler any, binding Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := resolveHandler(handler)
	if err != nil {
		return err
	}
	if b.sealed {
		return NewConfigError(ref.name, ErrSealed, "cannot register parameters after Finalize")
	}
	if binding.Position < 0 {
		return NewConfigError(ref.name, ErrInvalidBinding, "negative argument position %d", binding.Position)
	}
	if binding.Kind < KindBody || binding.Kind > KindAuth {
		return NewConfigError(ref.name, ErrInvalidBinding, "unknown binding kind %d", binding.Kind)
	}
	if binding.Validator != nil && binding.Kind != KindBody {
		return NewConfigError(ref.name, ErrInvalidBinding, "validator is only supported on body bindings")
	}

	d := b.draftFor(ref)
	for _, existing := range d.bindings {
		if existing.Position == binding.Position {
			return NewConfigError(ref.name, ErrDuplicatePosition,
				"argument %d already bound to %s", binding.Position, existing.Kind)
		}
	}
	d.bindings = append(d.bindings, binding)
	sort.SliceStable(d.bindings, func(i, j int) bool {
		return d.bindings[i].Position < d.bindings[j].Position
	})
	return nil
}

// RegisterEvent records an event-bus subscription for handler. It only feeds
// the manifest; bus events are not dispatched by this package.
func (b *Builder) RegisterEvent(handler any, event string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, err := resolveHandler(handler)
	if err != nil {
		return err
	}
	if b.sealed {
		return NewConfigError(ref.name, ErrSealed, "cannot register events after Finalize")
	}
	if event == "" {
		return NewConfigError(ref.name, ErrInvalidEvent, "event name must not be empty")
	}
	d := b.draftFor(ref)
	d.events = append(d.events, event)
	return nil
}

// Finalize seals the builder and returns the route table. Every problem
// found is reported, joined into one error.
func (b *Builder) Finalize() (*Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return nil, NewConfigError(anonymous, ErrSealed, "Finalize called twice")
	}
	b.sealed = true

	table := &Table{options: b.opts}
	var errs []error
	for _, key := range b.order {
		d := b.drafts[key]
		for _, event := range d.events {
			table.subscriptions = append(table.subscriptions, Subscription{Event: event, Handler: d.name})
		}
		if d.method == "" && d.path == "" && d.auth == nil && len(d.bindings) == 0 {
			continue
		}
		if d.method == "" || d.path == "" || !d.fn.IsValid() {
			errs = append(errs, NewConfigError(d.name, ErrIncomplete, "incomplete; register it with an HTTP method"))
			continue
		}
		entry := &Entry{
			Name:     d.name,
			Method:   d.method,
			Path:     d.path,
			Auth:     d.auth,
			Bindings: append([]Binding(nil), d.bindings...),
			fn:       d.fn,
		}
		if err := checkBindings(entry); err != nil {
			errs = append(errs, err)
			continue
		}
		table.entries = append(table.entries, entry)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

func (b *Builder) draftFor(ref handlerRef) *draft {
	d, ok := b.drafts[ref.key]
	if !ok {
		d = &draft{name: ref.name}
		b.drafts[ref.key] = d
		b.order = append(b.order, ref.key)
	}
	return d
}

var (
	contextType   = reflect.TypeOf((*lambda.Context)(nil))
	eventType     = reflect.TypeOf((*lambda.Event)(nil))
	responderType = reflect.TypeOf(lambda.Responder{})
	claimsType    = reflect.TypeOf(lambda.Claims(nil))
	stringMapType = reflect.TypeOf(map[string]string(nil))
	stringType    = reflect.TypeOf("")
)

// checkBindings verifies every argument the handler declares can receive
// the value its binding projects.
func checkBindings(e *Entry) error {
	t := e.fn.Type()
	bound := make(map[int]Binding, len(e.Bindings))
	for _, b := range e.Bindings {
		if b.Position >= t.NumIn() {
			return NewConfigError(e.Name, ErrInvalidBinding,
				"%s binding at argument %d but handler takes %d arguments", b.Kind, b.Position, t.NumIn())
		}
		bound[b.Position] = b
	}

	for i := 0; i < t.NumIn(); i++ {
		param := t.In(i)
		b, ok := bound[i]
		if !ok {
			if !contextType.AssignableTo(param) {
				return NewConfigError(e.Name, ErrInvalidBinding,
					"argument %d (%s) has no binding and cannot receive *lambda.Context", i, param)
			}
			continue
		}
		if want := projectedType(b); want != nil && !want.AssignableTo(param) {
			return NewConfigError(e.Name, ErrInvalidBinding,
				"%s binding at argument %d yields %s, not assignable to %s", b.Kind, i, want, param)
		}
		if tv, ok := b.Validator.(TypedValidator); ok && !assignableOrDeref(tv.OutputType(), param) {
			return NewConfigError(e.Name, ErrInvalidBinding,
				"validator at argument %d yields %s, not assignable to %s", i, tv.OutputType(), param)
		}
	}
	return nil
}

// projectedType is the static type a binding yields, or nil for the body
// whose type is only known per request.
func projectedType(b Binding) reflect.Type {
	switch b.Kind {
	case KindQuery, KindParams, KindHeaders:
		if b.Name != "" {
			return stringType
		}
		return stringMapType
	case KindRequest:
		return eventType
	case KindResponse:
		return responderType
	case KindAuth:
		return claimsType
	default:
		return nil
	}
}

func assignableOrDeref(from, to reflect.Type) bool {
	if from.AssignableTo(to) {
		return true
	}
	return from.Kind() == reflect.Pointer && from.Elem().AssignableTo(to)
}
