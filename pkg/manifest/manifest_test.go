package manifest

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-http-router/pkg/lambda"
	"lambda-http-router/pkg/registry"
)

func listUsers() string                       { return "" }
func getUser(ctx *lambda.Context) string      { return "" }
func createUser(ctx *lambda.Context) string   { return "" }
func adminReport(ctx *lambda.Context) string  { return "" }
func onUserCreated(ctx *lambda.Context) error { return nil }

func buildTable(t *testing.T) *registry.Table {
	t.Helper()
	optional := true

	b := registry.NewBuilder()
	require.NoError(t, b.Register(getUser, registry.MethodGet, "/users/:id"))
	require.NoError(t, b.Register(createUser, registry.MethodPost, "/users"))
	require.NoError(t, b.Register(listUsers, registry.MethodGet, "/users"))
	require.NoError(t, b.RegisterAuth(createUser, &registry.AuthOptions{Optional: &optional}))
	require.NoError(t, b.Register(adminReport, registry.MethodGet, "/admin/{proxy+}"))
	require.NoError(t, b.RegisterAuth(adminReport, &registry.AuthOptions{Roles: []string{"admin"}}))
	require.NoError(t, b.RegisterEvent(onUserCreated, "user.created"))

	table, err := b.Finalize()
	require.NoError(t, err)
	return table
}

func TestGatewayPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/users/:id", "/users/{id}"},
		{"/files/:proxy+", "/files/{proxy+}"},
		{"/assets/:rest*", "/assets/{rest*}"},
		{"/users/{id}", "/users/{id}"},
		{"users", "/users"},
		{"/a/b:c", "/a/b:c"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GatewayPath(tt.in))
		})
	}
}

func TestBuild(t *testing.T) {
	m := Build(buildTable(t))

	require.Len(t, m.Routes, 4)
	assert.Equal(t, "GET /admin/{proxy+}", m.Routes[0].Key())
	assert.Equal(t, "GET /users", m.Routes[1].Key())
	assert.Equal(t, "POST /users", m.Routes[2].Key())
	assert.Equal(t, "GET /users/{id}", m.Routes[3].Key())

	assert.Equal(t, Auth{Type: AuthFirebase, Roles: []string{"admin"}}, m.Routes[0].Auth)
	assert.Equal(t, Auth{Type: AuthNone}, m.Routes[1].Auth)
	require.NotNil(t, m.Routes[2].Auth.Optional)
	assert.True(t, *m.Routes[2].Auth.Optional)
	assert.Equal(t, "createUser", m.Routes[2].Handler)

	assert.Equal(t, []Event{{Event: "user.created", Handler: "onUserCreated"}}, m.Events)

	r, ok := m.Find("GET", "/users/{id}")
	require.True(t, ok)
	assert.Equal(t, "getUser", r.Handler)
}

func TestEncode_JSON(t *testing.T) {
	m := &Manifest{Routes: []Route{{Method: "GET", Path: "/ping", Auth: Auth{Type: AuthNone}}}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, FormatJSON))
	assert.Equal(t, `{
  "routes": [
    {
      "method": "GET",
      "path": "/ping",
      "auth": {
        "type": "none"
      }
    }
  ]
}
`, buf.String())
}

func TestWriteLoad(t *testing.T) {
	m := Build(buildTable(t))
	dir := t.TempDir()

	for _, name := range []string{DefaultFile, "nested/routes.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Write(path, m))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, m, loaded)
			assert.Empty(t, Diff(loaded, m))
		})
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, &Manifest{}, "toml"))
	_, err := Decode(&buf, "toml")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	desired := Build(buildTable(t))
	current := &Manifest{
		Routes: []Route{
			{Method: "GET", Path: "/users", Auth: Auth{Type: AuthNone}, Handler: "listUsers"},
			{Method: "POST", Path: "/users", Auth: Auth{Type: AuthNone}, Handler: "createUser"},
			{Method: "DELETE", Path: "/users/{id}", Auth: Auth{Type: AuthNone}, Handler: "deleteUser"},
			{Method: "GET", Path: "/admin/{proxy+}", Auth: Auth{Type: AuthFirebase, Roles: []string{"admin"}}, Handler: "adminReport"},
		},
	}

	changes := Diff(current, desired)
	var got []string
	for _, c := range changes {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{
		"removed DELETE /users/{id}",
		"added GET /users/{id}",
		"changed POST /users: auth none -> firebase (optional)",
		"added event user.created: onUserCreated",
	}, got)
}
