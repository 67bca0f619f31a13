package lambda

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	resp := JSON(http.StatusCreated, map[string]int{"n": 1}, map[string]string{"location": "/n/1"})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"n":1}`, resp.Body)
	assert.Equal(t, ContentTypeJSON, resp.Headers["content-type"])
	assert.Equal(t, "/n/1", resp.Headers["location"])
}

func TestJSON_Unserializable(t *testing.T) {
	resp := JSON(http.StatusOK, make(chan int))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, resp.Body)
}

func TestTextAndNoContent(t *testing.T) {
	var res Responder

	text := res.Text(http.StatusAccepted, "queued", map[string]string{"content-type": "text/csv"})
	assert.Equal(t, http.StatusAccepted, text.StatusCode)
	assert.Equal(t, "text/csv", text.Headers["content-type"])

	empty := res.NoContent()
	assert.Equal(t, http.StatusNoContent, empty.StatusCode)
	assert.Empty(t, empty.Body)
}

func TestHTTPError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewHTTPError(http.StatusServiceUnavailable, "Try later",
		WithCause(cause),
		WithHeaders(map[string]string{"retry-after": "30"}),
		WithDetails([]string{"storage"}),
	)

	assert.Equal(t, "503 Try later: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "30", err.Headers["retry-after"])
	assert.Equal(t, []string{"storage"}, err.Details)

	wrapped := fmt.Errorf("handler: %w", err)
	got, ok := AsHTTPError(wrapped)
	require.True(t, ok)
	assert.Same(t, err, got)

	_, ok = AsHTTPError(cause)
	assert.False(t, ok)
}

func TestHTTPErrorConstructors(t *testing.T) {
	tests := []struct {
		err  *HTTPError
		want int
	}{
		{BadRequest("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode)
		assert.Equal(t, fmt.Sprintf("%d x", tt.want), tt.err.Error())
	}
}

type stubBody struct {
	value any
	raw   string
}

func (s stubBody) Value() (any, error) { return s.value, nil }
func (s stubBody) Raw() string         { return s.raw }

func TestContext(t *testing.T) {
	ctx := &Context{
		Params:  map[string]string{"id": "7"},
		Query:   map[string]string{"q": "go"},
		Headers: map[string]string{"x-trace": "abc"},
		Auth:    Claims{"sub": "u-1", "n": 3},
	}

	assert.Equal(t, "7", ctx.Param("id"))
	assert.Equal(t, "go", ctx.QueryValue("q"))
	assert.Equal(t, "abc", ctx.Header("X-Trace"))
	assert.Equal(t, "u-1", ctx.Auth.String("sub"))
	assert.Empty(t, ctx.Auth.String("n"))
	assert.Empty(t, Claims(nil).String("sub"))

	body, err := ctx.Body()
	require.NoError(t, err)
	assert.Nil(t, body)

	var v struct{ A int }
	bindErr := ctx.Bind(&v)
	httpErr, ok := AsHTTPError(bindErr)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)

	ctx.SetBody(stubBody{value: map[string]any{"A": 1.0}, raw: `{"A":2}`})
	body, err = ctx.Body()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"A": 1.0}, body)
	require.NoError(t, ctx.Bind(&v))
	assert.Equal(t, 2, v.A)

	ctx.SetBody(stubBody{raw: `{`})
	httpErr, ok = AsHTTPError(ctx.Bind(&v))
	require.True(t, ok)
	assert.Equal(t, "Invalid JSON body", httpErr.Message)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "1.0", ShapeREST.String())
	assert.Equal(t, "2.0", ShapeHTTP.String())
}
