package response

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"lambda-http-router/pkg/lambda"
)

const internalErrorBody = `{"message":"Internal Server Error"}`

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error translates err into a response. HTTP errors keep their status,
// headers and message; anything else is logged and answered with a generic 500.
func Error(err error, logger logrus.FieldLogger) *lambda.Response {
	if httpErr, ok := lambda.AsHTTPError(err); ok {
		body, marshalErr := json.Marshal(errorBody{Message: httpErr.Message, Details: httpErr.Details})
		if marshalErr == nil {
			headers := map[string]string{"content-type": lambda.ContentTypeJSON}
			for k, v := range httpErr.Headers {
				headers[k] = v
			}
			return &lambda.Response{
				StatusCode: httpErr.StatusCode,
				Headers:    headers,
				Body:       string(body),
			}
		}
		err = marshalErr
	}

	if logger != nil {
		logger.WithError(err).Error("Unhandled error in route handler")
	}
	return InternalError()
}

// InternalError is the generic 500 response
func InternalError() *lambda.Response {
	return &lambda.Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    map[string]string{"content-type": lambda.ContentTypeJSON},
		Body:       internalErrorBody,
	}
}

// InvalidRequest answers events without a method or path
func InvalidRequest() *lambda.Response {
	return lambda.Text(http.StatusBadRequest, "Invalid request")
}

// UnsupportedMethod answers methods outside the supported verbs
func UnsupportedMethod() *lambda.Response {
	return lambda.Text(http.StatusMethodNotAllowed, "Method Not Allowed")
}

// NotFound answers paths no route matches
func NotFound() *lambda.Response {
	return lambda.Text(http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers a known path requested with the wrong method
func MethodNotAllowed(allow string) *lambda.Response {
	return &lambda.Response{
		StatusCode: http.StatusMethodNotAllowed,
		Headers:    map[string]string{"Allow": allow},
		Body:       "",
	}
}
