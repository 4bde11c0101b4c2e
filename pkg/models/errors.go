package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks unrecoverable caller errors (zero shares, missing
// ticker). These abort the whole request; they are never auto-corrected.
var ErrInvalidInput = errors.New("invalid input")

// NewInvalidInput wraps ErrInvalidInput with a formatted reason so callers
// can match with errors.Is while still seeing the offending field.
func NewInvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// DataUnavailableError is returned by snapshot providers when no usable
// fundamentals exist for a ticker. The core refuses to run on it rather
// than substituting a silently wrong snapshot.
type DataUnavailableError struct {
	Ticker string
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fundamentals unavailable for %s (source %s): %v", e.Ticker, e.Source, e.Err)
	}
	return fmt.Sprintf("fundamentals unavailable for %s (source %s)", e.Ticker, e.Source)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
