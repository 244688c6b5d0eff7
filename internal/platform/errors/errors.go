// Package errors wraps the standard errors package with context helpers and
// the error types the job runner uses to attribute failures to a plugin.
package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Sentinel errors for network-facing helpers and plugins
var (
	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimit indicates a rate limit was exceeded
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrConnectionFailed indicates a connection could not be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnauthorized indicates authentication or authorization failed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidResponse indicates a response could not be parsed or was malformed
	ErrInvalidResponse = errors.New("invalid response")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }
func Unwrap(err error) error { return errors.Unwrap(err) }
func New(msg string) error { return errors.New(msg) }
func Join(errs ...error) error { return errors.Join(errs...) }

func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// PluginError atribuye un fallo a un plugin y al target que procesaba.
// Kind es un sentinel de clasificación (ErrJobFailed, ErrLoad, ...).
type PluginError struct {
	Plugin string
	Target string
	Kind   error
	Cause  error
}

func (e *PluginError) Error() string {
	where := e.Plugin
	if e.Target != "" {
		where += " (" + e.Target + ")"
	}
	switch {
	case e.Kind != nil && e.Cause != nil:
		return fmt.Sprintf("%s: %v: %v", where, e.Kind, e.Cause)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", where, e.Kind)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", where, e.Cause)
	default:
		return where
	}
}

// Unwrap permite errors.Is tanto contra Kind como contra Cause.
func (e *PluginError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// ForPlugin construye un PluginError. Devuelve nil si kind y cause son nil.
func ForPlugin(plugin, target string, kind, cause error) error {
	if kind == nil && cause == nil {
		return nil
	}
	return &PluginError{Plugin: plugin, Target: target, Kind: kind, Cause: cause}
}

// PanicError es un panic recuperado convertido en error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap expone el valor si el panic se lanzó con un error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FromPanic convierte el valor de recover() en *PanicError (nil si r es nil).
func FromPanic(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}
