package lambda

import (
	"encoding/json"
	"net/http"
)

// Content types set by the response helpers
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// JSON builds a response with data serialized as JSON
func JSON(status int, data any, headers ...map[string]string) *Response {
	body, err := json.Marshal(data)
	if err != nil {
		// Unserializable payloads are a handler bug; surface them as a 500.
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"content-type": ContentTypeJSON},
			Body:       `{"message":"Internal Server Error"}`,
		}
	}
	return &Response{
		StatusCode: status,
		Headers:    mergeHeaders(map[string]string{"content-type": ContentTypeJSON}, headers),
		Body:       string(body),
	}
}

// Text builds a plain text response
func Text(status int, body string, headers ...map[string]string) *Response {
	return &Response{
		StatusCode: status,
		Headers:    mergeHeaders(map[string]string{"content-type": ContentTypeText}, headers),
		Body:       body,
	}
}

// NoContent builds an empty 204 response
func NoContent(headers ...map[string]string) *Response {
	return &Response{
		StatusCode: http.StatusNoContent,
		Headers:    mergeHeaders(map[string]string{}, headers),
		Body:       "",
	}
}

// Responder exposes the response helpers to handlers that bind them
type Responder struct{}

// JSON builds a JSON response
func (Responder) JSON(status int, data any, headers ...map[string]string) *Response {
	return JSON(status, data, headers...)
}

// Text builds a plain text response
func (Responder) Text(status int, body string, headers ...map[string]string) *Response {
	return Text(status, body, headers...)
}

// NoContent builds an empty 204 response
func (Responder) NoContent(headers ...map[string]string) *Response {
	return NoContent(headers...)
}

func mergeHeaders(base map[string]string, extra []map[string]string) map[string]string {
	for _, h := range extra {
		for k, v := range h {
			base[k] = v
		}
	}
	return base
}
