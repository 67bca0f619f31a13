// Package manifest describes the finalized route table in the form the
// deployment tooling consumes: one entry per method and gateway path with
// its auth requirement, plus event-bus subscriptions.
package manifest

import (
	"regexp"
	"sort"
	"strings"

	"lambda-http-router/pkg/registry"
)

// DefaultFile is the manifest file name used when none is configured
const DefaultFile = "routes.manifest.json"

// Auth types
const (
	AuthNone     = "none"
	AuthFirebase = registry.SchemeFirebase
)

// Auth is a route's auth requirement
type Auth struct {
	Type     string   `json:"type" yaml:"type"`
	Optional *bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
	Roles    []string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Route is one deployable route
type Route struct {
	Method  string `json:"method" yaml:"method"`
	Path    string `json:"path" yaml:"path"`
	Auth    Auth   `json:"auth" yaml:"auth"`
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Key identifies the route by method and path
func (r Route) Key() string {
	return r.Method + " " + r.Path
}

// Event is one event-bus subscription
type Event struct {
	Event   string `json:"event" yaml:"event"`
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Manifest is the route manifest document
type Manifest struct {
	Routes []Route `json:"routes" yaml:"routes"`
	Events []Event `json:"events,omitempty" yaml:"events,omitempty"`
}

var gatewayParam = regexp.MustCompile(`^:([A-Za-z0-9_]+[+*]?)$`)

// GatewayPath rewrites colon parameters into API Gateway brace syntax:
// "/users/:id" becomes "/users/{id}" and ":proxy+" becomes "{proxy+}".
func GatewayPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if m := gatewayParam.FindStringSubmatch(segment); m != nil {
			segments[i] = "{" + m[1] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// Build derives the manifest from a finalized table. Routes are sorted by
// path, then method.
func Build(table *registry.Table) *Manifest {
	m := &Manifest{Routes: make([]Route, 0, table.Len())}

	for _, entry := range table.Entries() {
		route := Route{
			Method:  string(entry.Method),
			Path:    GatewayPath(entry.Path),
			Auth:    Auth{Type: AuthNone},
			Handler: entry.Name,
		}
		if entry.Auth != nil {
			route.Auth = Auth{
				Type:     entry.Auth.Scheme,
				Optional: entry.Auth.Optional,
			}
			if len(entry.Auth.Roles) > 0 {
				route.Auth.Roles = append([]string(nil), entry.Auth.Roles...)
			}
		}
		m.Routes = append(m.Routes, route)
	}
	sort.SliceStable(m.Routes, func(i, j int) bool {
		if m.Routes[i].Path == m.Routes[j].Path {
			return m.Routes[i].Method < m.Routes[j].Method
		}
		return m.Routes[i].Path < m.Routes[j].Path
	})

	seen := make(map[string]bool)
	for _, sub := range table.Subscriptions() {
		key := sub.Event + "\x00" + sub.Handler
		if seen[key] {
			continue
		}
		seen[key] = true
		m.Events = append(m.Events, Event{Event: sub.Event, Handler: sub.Handler})
	}
	sort.SliceStable(m.Events, func(i, j int) bool {
		if m.Events[i].Event == m.Events[j].Event {
			return m.Events[i].Handler < m.Events[j].Handler
		}
		return m.Events[i].Event < m.Events[j].Event
	})

	return m
}

// Find returns the route registered for method and gateway path
func (m *Manifest) Find(method, path string) (Route, bool) {
	for _, r := range m.Routes {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
