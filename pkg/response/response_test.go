package response

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-http-router/pkg/lambda"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name       string
		result     any
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{"nil", nil, http.StatusNoContent, "", ""},
		{"nil response pointer", (*lambda.Response)(nil), http.StatusNoContent, "", ""},
		{"string", "hello", http.StatusOK, "hello", ""},
		{"bytes", []byte("raw"), http.StatusOK, "raw", ""},
		{"structured", &lambda.Response{StatusCode: http.StatusCreated, Body: "made"}, http.StatusCreated, "made", ""},
		{"structured value without status", lambda.Response{Body: "x"}, http.StatusOK, "x", ""},
		{"map", map[string]bool{"ok": true}, http.StatusOK, `{"ok":true}`, lambda.ContentTypeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Interpret(tt.result)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, resp.Body)
			assert.Equal(t, tt.wantType, resp.Headers["content-type"])
		})
	}
}

func TestFormat_Shapes(t *testing.T) {
	resp := &lambda.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"x-a": "1"},
		Body:       "ok",
		Cookies:    []string{"session=abc"},
	}

	rest, ok := Format(resp, lambda.ShapeREST).(events.APIGatewayProxyResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, rest.StatusCode)
	assert.Equal(t, "ok", rest.Body)
	assert.Equal(t, map[string]string{"x-a": "1"}, rest.Headers)

	v2, ok := Format(resp, lambda.ShapeHTTP).(events.APIGatewayV2HTTPResponse)
	require.True(t, ok)
	assert.Equal(t, []string{"session=abc"}, v2.Cookies)
	assert.Equal(t, "ok", v2.Body)
}

func TestFormat_IsPure(t *testing.T) {
	resp := &lambda.Response{StatusCode: http.StatusAccepted, Headers: map[string]string{"x-a": "1"}, Body: "b"}

	first := FormatHTTP(resp)
	second := FormatHTTP(resp)
	assert.Equal(t, first, second)

	first.Headers["x-a"] = "changed"
	assert.Equal(t, "1", resp.Headers["x-a"])
	assert.Equal(t, "1", FormatREST(resp).Headers["x-a"])
}

func TestFormat_DefaultStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, FormatREST(&lambda.Response{}).StatusCode)
	assert.Nil(t, FormatHTTP(&lambda.Response{}).Cookies)
}

func TestError_HTTPError(t *testing.T) {
	resp := Error(lambda.Forbidden("forbidden"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, `{"message":"forbidden"}`, resp.Body)
	assert.Equal(t, lambda.ContentTypeJSON, resp.Headers["content-type"])

	resp = Error(lambda.NewHTTPError(http.StatusConflict, "taken",
		lambda.WithDetails(map[string]string{"field": "email"}),
		lambda.WithHeaders(map[string]string{"retry-after": "5"}),
	), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.JSONEq(t, `{"message":"taken","details":{"field":"email"}}`, resp.Body)
	assert.Equal(t, "5", resp.Headers["retry-after"])
}

func TestError_WrappedHTTPError(t *testing.T) {
	err := errors.Join(errors.New("context"), lambda.NotFound("missing"))
	resp := Error(err, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, `{"message":"missing"}`, resp.Body)
}

func TestError_Unhandled(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	resp := Error(errors.New("db password is hunter2"), logger)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, `{"message":"Internal Server Error"}`, resp.Body)
	assert.NotContains(t, resp.Body, "hunter2")
	assert.Contains(t, buf.String(), "hunter2")
}

func TestPreRoutingResponses(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidRequest().StatusCode)
	assert.Equal(t, "Invalid request", InvalidRequest().Body)
	assert.Equal(t, "Method Not Allowed", UnsupportedMethod().Body)
	assert.Equal(t, "Not Found", NotFound().Body)

	resp := MethodNotAllowed("GET, POST")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, POST", resp.Headers["Allow"])
	assert.Empty(t, resp.Body)
}
