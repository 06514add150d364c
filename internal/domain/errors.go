package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError is fatal and raised before any check executes:
// duplicate check ids, invalid selection filters, invalid configuration values.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Op == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Op, e.Reason)
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(op, format string, args ...interface{}) error {
	return &ConfigurationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

var (
	// ErrNotCacheable is returned when a result of a non-cacheable check is written to the cache.
	ErrNotCacheable = errors.New("check is not cacheable")
	// ErrCheckNotFound is returned for lookups of unknown check ids.
	ErrCheckNotFound = errors.New("check not found")
	// ErrRunNotFound is returned by report stores for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
)
