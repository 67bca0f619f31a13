package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the key used to store request ID in context
	RequestIDKey = "request_id"

	// DispatchedKey is set on requests the dispatcher answered
	DispatchedKey = "dispatched"

	dispatchLatencyKey = "dispatch_latency"
	maxRequestIDLength = 128
)

// RequestID assigns the id forwarded as requestContext.requestId. A client
// supplied X-Request-ID is kept when it is short printable ASCII.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '!' || id[i] > '~' {
			return false
		}
	}
	return true
}

// MarkDispatched records that the dispatcher answered c after elapsed
func MarkDispatched(c *gin.Context, elapsed time.Duration) {
	c.Set(DispatchedKey, true)
	c.Set(dispatchLatencyKey, elapsed)
}

func dispatchLatency(c *gin.Context) (time.Duration, bool) {
	v, ok := c.Get(dispatchLatencyKey)
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1000000
}

// GatewayLogger logs the requests the dispatcher never saw: rejections by
// the gateway middleware and calls to the gateway's own endpoints.
// Dispatched requests already get their access line from the dispatcher.
func GatewayLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if c.GetBool(DispatchedKey) {
			return
		}

		status := c.Writer.Status()
		fields := logrus.Fields{
			"request_id":  c.GetString(RequestIDKey),
			"method":      c.Request.Method,
			"path":        RequestPath(c),
			"status_code": status,
			"latency_ms":  milliseconds(time.Since(start)),
			"client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			logrus.WithFields(fields).Error("Gateway error")
		case c.IsAborted() || status >= 400:
			logrus.WithFields(fields).Warn("Request rejected by gateway")
		default:
			logrus.WithFields(fields).Debug("Gateway endpoint served")
		}
	}
}

// PerformanceMonitor logs requests slower than slowThreshold, splitting the
// time spent in the dispatcher from the gateway's own overhead
func PerformanceMonitor(slowThreshold time.Duration) gin.HandlerFunc {
	if slowThreshold == 0 {
		slowThreshold = time.Second
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if latency <= slowThreshold {
			return
		}

		fields := logrus.Fields{
			"performance_alert": true,
			"request_id":        c.GetString(RequestIDKey),
			"method":            c.Request.Method,
			"path":              RequestPath(c),
			"latency_ms":        milliseconds(latency),
			"threshold_ms":      milliseconds(slowThreshold),
			"status_code":       c.Writer.Status(),
		}
		if d, ok := dispatchLatency(c); ok {
			fields["dispatch_ms"] = milliseconds(d)
			fields["gateway_ms"] = milliseconds(latency - d)
		}
		logrus.WithFields(fields).Warn("Slow request detected")
	}
}
