package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrParse  = errors.New("parse error")
	ErrConfig = errors.New("configuration error")

	// Resource errors
	ErrCatalogUnavailable = errors.New("gene set catalog unavailable")
	ErrUnknownSpecies     = fmt.Errorf("%w: unknown species", ErrConfig)
	ErrNotFound           = errors.New("resource not found")
	ErrRunNotFound        = fmt.Errorf("%w: analysis run", ErrNotFound)

	// Computation errors
	ErrDegenerateNull     = errors.New("same-sign null distribution is empty")
	ErrComputationAborted = errors.New("computation aborted")
)

// Error constructors with context
func NewParseError(line int, format string, args ...interface{}) error {
	if line > 0 {
		return fmt.Errorf("%w: line %d: %s", ErrParse, line, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

func NewCatalogError(resource string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCatalogUnavailable, resource)
	}
	return fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, resource, err)
}

func NewAbortedError(cause error) error {
	return fmt.Errorf("%w: %v", ErrComputationAborted, cause)
}

// Error checking helpers
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsCatalogError(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}

func IsAbortedError(err error) bool {
	return errors.Is(err, ErrComputationAborted)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
