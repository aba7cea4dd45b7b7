package mvc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a request-time failure carrying the status code it is
// rendered with.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Errorf builds an HTTPError with a formatted message.
func Errorf(status int, format string, args ...any) *HTTPError {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *HTTPError {
	return Errorf(http.StatusNotFound, format, args...)
}

func BadRequest(format string, args ...any) *HTTPError {
	return Errorf(http.StatusBadRequest, format, args...)
}

func UnsupportedMediaType(format string, args ...any) *HTTPError {
	return Errorf(http.StatusUnsupportedMediaType, format, args...)
}

// malformed wraps a codec error as a 400 keeping the codec's message.
func malformed(err error) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
}

// InternalError wraps err as a 500 keeping its message.
func InternalError(err error) *HTTPError {
	return &HTTPError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
}

// StatusOf returns the status an error is rendered with.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return http.StatusInternalServerError
}

// Violation is one inconsistency found while validating the registry.
type Violation struct {
	Controller string
	Action     string
	Message    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s: %s", v.Controller, v.Action, v.Message)
}

// ConfigError lists every violation found at startup.
type ConfigError struct {
	Violations []Violation
}

func (e *ConfigError) Add(controller, action, format string, args ...any) {
	e.Violations = append(e.Violations, Violation{
		Controller: controller,
		Action:     action,
		Message:    fmt.Sprintf(format, args...),
	})
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invalid action configuration (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Err returns e when it holds violations and nil otherwise.
func (e *ConfigError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
