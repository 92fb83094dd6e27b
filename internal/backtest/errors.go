package backtest

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's error taxonomy. Configuration and
// insufficient-data errors abort a run before it starts; degenerate orders
// are skipped locally and never abort a run.
var (
	ErrInvalidConfig    = errors.New("backtest: invalid configuration")
	ErrInsufficientData = errors.New("backtest: series shorter than warm-up window")
	ErrDegenerateOrder  = errors.New("backtest: degenerate order rejected")
)

// ErrorKind classifies an engine failure for callers.
type ErrorKind string

// ErrorKind values.
const (
	KindConfig           ErrorKind = "config"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindUpstream         ErrorKind = "upstream"
	KindInternal         ErrorKind = "internal"
)

// EngineError is the structured error object surfaced at the engine
// boundary: a kind plus a message, never a partially populated result.
type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is checks.
func (e *EngineError) Unwrap() error { return e.err }

// Classify wraps err into an EngineError with the appropriate kind.
func Classify(err error) *EngineError {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}

	kind := KindInternal
	switch {
	case errors.Is(err, ErrInvalidConfig):
		kind = KindConfig
	case errors.Is(err, ErrInsufficientData):
		kind = KindInsufficientData
	}
	return &EngineError{Kind: kind, Message: err.Error(), err: err}
}
