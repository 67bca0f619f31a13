package registry

import "reflect"

// Entry is one finalized route
type Entry struct {
	Name     string
	Method   Method
	Path     string
	Auth     *AuthRequirement
	Bindings []Binding

	fn reflect.Value
}

// Arity is the number of arguments the handler declares
func (e *Entry) Arity() int {
	return e.fn.Type().NumIn()
}

// ParamType returns the declared type of argument i
func (e *Entry) ParamType(i int) reflect.Type {
	return e.fn.Type().In(i)
}

// RequiresBody reports whether any binding asks for the request body
func (e *Entry) RequiresBody() bool {
	for _, b := range e.Bindings {
		if b.Kind == KindBody {
			return true
		}
	}
	return false
}

// Subscription is an event-bus subscription recorded with RegisterEvent
type Subscription struct {
	Event   string
	Handler string
}

// Table is the sealed, read-only result of Builder.Finalize. It is safe for
// concurrent use.
type Table struct {
	entries       []*Entry
	subscriptions []Subscription
	options       Options
}

// Entries returns the routes in registration order
func (t *Table) Entries() []*Entry {
	return append([]*Entry(nil), t.entries...)
}

// Subscriptions returns the recorded event subscriptions
func (t *Table) Subscriptions() []Subscription {
	return append([]Subscription(nil), t.subscriptions...)
}

// Len returns the number of routes
func (t *Table) Len() int {
	return len(t.entries)
}

// Options returns the options the table was built with
func (t *Table) Options() Options {
	return t.options
}
