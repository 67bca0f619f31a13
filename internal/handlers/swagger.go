package handlers

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/swaggo/swag"

	"lambda-http-router/pkg/manifest"
)

// APIInfo is the header of the generated swagger document
type APIInfo struct {
	Title       string
	Version     string
	Description string
	Host        string
}

// routeDoc serves a swagger 2.0 document generated from the route manifest.
// swag keeps one registration per name, so the document is swapped in place.
type routeDoc struct {
	mu  sync.RWMutex
	doc string
}

// ReadDoc implements swag.Swagger
func (d *routeDoc) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

func (d *routeDoc) set(doc string) {
	d.mu.Lock()
	d.doc = doc
	d.mu.Unlock()
}

var (
	apiDoc       = &routeDoc{doc: "{}"}
	registerOnce sync.Once
)

// RegisterSwagger publishes the swagger document for m under swag.Name
func RegisterSwagger(m *manifest.Manifest, info APIInfo) error {
	doc, err := BuildSwagger(m, info)
	if err != nil {
		return err
	}
	apiDoc.set(string(doc))
	registerOnce.Do(func() {
		swag.Register(swag.Name, apiDoc)
	})
	return nil
}

var gatewayParam = regexp.MustCompile(`\{([^{}+*]+)[+*]?\}`)

// BuildSwagger renders m as a swagger 2.0 JSON document
func BuildSwagger(m *manifest.Manifest, info APIInfo) ([]byte, error) {
	paths := make(map[string]map[string]any)
	for _, route := range m.Routes {
		ops, ok := paths[route.Path]
		if !ok {
			ops = make(map[string]any)
			paths[route.Path] = ops
		}
		ops[strings.ToLower(route.Method)] = operation(route)
	}

	doc := map[string]any{
		"swagger": "2.0",
		"info": map[string]any{
			"title":       info.Title,
			"version":     info.Version,
			"description": info.Description,
		},
		"basePath": "/",
		"paths":    paths,
		"securityDefinitions": map[string]any{
			"BearerAuth": map[string]any{
				"type":        "apiKey",
				"in":          "header",
				"name":        "Authorization",
				"description": `Type "Bearer" followed by a space and JWT token.`,
			},
		},
	}
	if info.Host != "" {
		doc["host"] = info.Host
	}
	return json.MarshalIndent(doc, "", "  ")
}

func operation(route manifest.Route) map[string]any {
	op := map[string]any{
		"operationId": route.Handler,
		"summary":     route.Method + " " + route.Path,
		"produces":    []string{"application/json"},
		"responses": map[string]any{
			"default": map[string]any{"description": "Handler response"},
		},
	}

	var params []map[string]any
	for _, match := range gatewayParam.FindAllStringSubmatch(route.Path, -1) {
		params = append(params, map[string]any{
			"name":     match[1],
			"in":       "path",
			"required": true,
			"type":     "string",
		})
	}
	switch route.Method {
	case "POST", "PUT", "PATCH":
		params = append(params, map[string]any{
			"name":     "body",
			"in":       "body",
			"required": false,
			"schema":   map[string]any{"type": "object"},
		})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}

	if route.Auth.Type == manifest.AuthFirebase {
		op["security"] = []map[string][]string{{"BearerAuth": {}}}
		if len(route.Auth.Roles) > 0 {
			op["description"] = "Requires one of the roles: " + strings.Join(route.Auth.Roles, ", ")
		}
	}
	return op
}
