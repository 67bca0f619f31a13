// Package router matches a method and path against the registered route
// templates. It distinguishes "no route" from "route exists for another
// method" so callers can answer 404 or 405 with an Allow header.
package router

import (
	"strings"

	"lambda-http-router/pkg/registry"
)

// MatchKind classifies a lookup result
type MatchKind int

const (
	NoMatch MatchKind = iota
	Found
	MethodNotAllowed
)

// Match is the result of Router.Find
type Match struct {
	Kind    MatchKind
	Entry   *registry.Entry
	Params  map[string]string
	Allowed []registry.Method
}

// AllowHeader renders Allowed for an Allow response header
func (m Match) AllowHeader() string {
	methods := make([]string, len(m.Allowed))
	for i, method := range m.Allowed {
		methods[i] = string(method)
	}
	return strings.Join(methods, ", ")
}

type route struct {
	entry   *registry.Entry
	matcher *matcher
}

// Router is immutable once built and safe for concurrent use
type Router struct {
	routes []route
}

// New compiles every entry's template. Entries are tried in the given order,
// so the first registered match wins.
func New(entries []*registry.Entry) (*Router, error) {
	r := &Router{routes: make([]route, 0, len(entries))}
	for _, entry := range entries {
		m, err := compile(entry.Path)
		if err != nil {
			return nil, &registry.ConfigError{Handler: entry.Name, Err: err}
		}
		r.routes = append(r.routes, route{entry: entry, matcher: m})
	}
	return r, nil
}

// Find looks up the route for method and path
func (r *Router) Find(method registry.Method, path string) Match {
	var allowed []registry.Method
	seen := make(map[registry.Method]bool)

	for _, rt := range r.routes {
		params, ok := rt.matcher.match(path)
		if !ok {
			continue
		}
		if !seen[rt.entry.Method] {
			seen[rt.entry.Method] = true
			allowed = append(allowed, rt.entry.Method)
		}
		if rt.entry.Method == method {
			return Match{Kind: Found, Entry: rt.entry, Params: params}
		}
	}

	if len(allowed) > 0 {
		return Match{Kind: MethodNotAllowed, Allowed: allowed}
	}
	return Match{Kind: NoMatch}
}

// Len returns the number of compiled routes
func (r *Router) Len() int {
	return len(r.routes)
}
