package registry

import (
	"errors"
	"fmt"
)

// Configuration errors. They surface while routes are registered or when the
// builder is finalized, never per request.
var (
	ErrMissingPath       = errors.New("missing path")
	ErrIncomplete        = errors.New("incomplete route")
	ErrDuplicateMethod   = errors.New("duplicate method registration")
	ErrDuplicatePosition = errors.New("duplicate parameter position")
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
	ErrInvalidHandler    = errors.New("invalid handler")
	ErrInvalidBinding    = errors.New("invalid parameter binding")
	ErrInvalidEvent      = errors.New("invalid event subscription")
	ErrSealed            = errors.New("registry already finalized")
)

// ConfigError describes a route configuration problem for one handler
type ConfigError struct {
	Handler string // Handler identifier ("<anonymous>" for closures)
	Err     error  // One of the sentinel errors above
	Message string // Human-readable explanation
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("route for %q: %s", e.Handler, e.Message)
	}
	return fmt.Sprintf("route for %q: %v", e.Handler, e.Err)
}

// Unwrap returns the sentinel error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(handler string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Handler: handler,
		Err:     err,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
