package registry

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

const anonymous = "<anonymous>"

var closureName = regexp.MustCompile(`^(func)?\d+$`)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type namedHandler struct {
	name string
	fn   any
}

// Named gives a handler an explicit identity. Use it for closures, or when
// two method values share the same underlying method.
func Named(name string, fn any) any {
	return namedHandler{name: name, fn: fn}
}

// handlerRef is a resolved handler: registry key, display name and function
type handlerRef struct {
	key  string
	name string
	fn   reflect.Value
}

func resolveHandler(handler any) (handlerRef, error) {
	if n, ok := handler.(namedHandler); ok {
		if n.name == "" {
			return handlerRef{}, NewConfigError(anonymous, ErrInvalidHandler, "handler name must not be empty")
		}
		ref := handlerRef{key: n.name, name: n.name}
		if n.fn != nil {
			ref.fn = reflect.ValueOf(n.fn)
		}
		return ref, nil
	}

	fn := reflect.ValueOf(handler)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return handlerRef{}, NewConfigError(anonymous, ErrInvalidHandler, "handler must be a non-nil func, got %T", handler)
	}

	full := runtime.FuncForPC(fn.Pointer()).Name()
	return handlerRef{key: full, name: identifier(full), fn: fn}, nil
}

// identifier reduces a runtime function name such as
// "example.com/app/routes.(*Routes).GetUser-fm" to "GetUser".
func identifier(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || closureName.MatchString(name) {
		return anonymous
	}
	return name
}

// checkSignature accepts any non-variadic func returning (), (error), (T)
// or (T, error).
func checkSignature(name string, t reflect.Type) error {
	if t.IsVariadic() {
		return NewConfigError(name, ErrInvalidHandler, "variadic handlers are not supported")
	}
	switch t.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return NewConfigError(name, ErrInvalidHandler, "second result must be error, got %s", t.Out(1))
		}
		return nil
	default:
		return NewConfigError(name, ErrInvalidHandler, "handler returns %d values, expected at most 2", t.NumOut())
	}
}

// Invoke calls the handler with args. Missing or nil arguments are passed
// as zero values; the handler's error result, if any, is returned as err.
func (e *Entry) Invoke(args []any) (any, error) {
	t := e.fn.Type()
	in := make([]reflect.Value, t.NumIn())
	for i := range in {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := argumentValue(arg, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("handler %s argument %d: %w", e.Name, i, err)
		}
		in[i] = v
	}

	out := e.fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, errorResult(out[0])
		}
		return resultValue(out[0]), nil
	default:
		return resultValue(out[0]), errorResult(out[1])
	}
}

func argumentValue(arg any, typ reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(typ), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	if v.Type().ConvertibleTo(typ) {
		return v.Convert(typ), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), typ)
}

func resultValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func errorResult(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
