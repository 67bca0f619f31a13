// Package response turns handler results and errors into API Gateway
// responses for the payload shape of the inbound event.
package response

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"lambda-http-router/pkg/lambda"
)

// Interpret converts a handler result into a structured response.
// nil is 204, a string is a 200 text body, a Response is used as is and any
// other value is serialized as 200 JSON.
func Interpret(result any) *lambda.Response {
	switch r := result.(type) {
	case nil:
		return lambda.NoContent()
	case string:
		return &lambda.Response{StatusCode: http.StatusOK, Body: r}
	case *lambda.Response:
		if r == nil {
			return lambda.NoContent()
		}
		return withDefaultStatus(*r)
	case lambda.Response:
		return withDefaultStatus(r)
	case []byte:
		return &lambda.Response{StatusCode: http.StatusOK, Body: string(r)}
	default:
		return lambda.JSON(http.StatusOK, r)
	}
}

func withDefaultStatus(r lambda.Response) *lambda.Response {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	return &r
}

// Format renders resp for shape. The result is an
// events.APIGatewayProxyResponse or an events.APIGatewayV2HTTPResponse.
func Format(resp *lambda.Response, shape lambda.Shape) any {
	if shape == lambda.ShapeHTTP {
		return FormatHTTP(resp)
	}
	return FormatREST(resp)
}

// FormatREST renders a REST API response. Cookies are not part of that
// contract and are dropped.
func FormatREST(resp *lambda.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:      statusOf(resp),
		Headers:         copyHeaders(resp.Headers),
		Body:            resp.Body,
		IsBase64Encoded: resp.IsBase64Encoded,
	}
}

// FormatHTTP renders an HTTP API response
func FormatHTTP(resp *lambda.Response) events.APIGatewayV2HTTPResponse {
	out := events.APIGatewayV2HTTPResponse{
		StatusCode:      statusOf(resp),
		Headers:         copyHeaders(resp.Headers),
		Body:            resp.Body,
		IsBase64Encoded: resp.IsBase64Encoded,
	}
	if len(resp.Cookies) > 0 {
		out.Cookies = append([]string(nil), resp.Cookies...)
	}
	return out
}

func statusOf(resp *lambda.Response) int {
	if resp.StatusCode == 0 {
		return http.StatusOK
	}
	return resp.StatusCode
}

func copyHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}
