package inksep

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks out-of-range or inconsistent parameters. Nothing has been
	// computed when it is returned.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidInput marks malformed buffers, e.g. a byte slice that does not match the
	// declared size or channels of different dimensions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal means an invariant of the engine itself was violated.
	ErrInternal = errors.New("internal invariant violated")
)

// ConfigError describes one rejected parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
