// Package strategy defines the Strategy interface for trade decision units
// and provides a Factory that builds a fresh strategy instance per backtest
// run, so concurrent runs never share indicator state.
package strategy

import (
	"errors"
	"fmt"
	"sort"

	"backlab/internal/domain"
)

// ErrUnknownStrategy is returned when a strategy identifier has no
// registered constructor.
var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Strategy is the interface all trading strategies implement.
//
// Evaluate is called once per bar with a window of candles whose last
// element is the current bar. The window never contains future candles; a
// strategy must be a pure function of the window and its own internal state.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Warmup returns the minimum number of trailing bars the strategy
	// needs before it can produce valid signals.
	Warmup() int

	// Evaluate inspects the window and returns a trade intent, or nil when
	// the strategy has no opinion on this bar.
	Evaluate(window []domain.Candle) (*domain.TradeIntent, error)
}

// Constructor builds a new, independent strategy instance.
type Constructor func() Strategy

// Factory maps strategy identifiers to constructors. Unlike a registry of
// shared instances, every New call yields a fresh strategy, so indicator
// state cannot leak between runs.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty strategy Factory.
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
	}
}

// Register adds a constructor under the given identifier, replacing any
// previous registration.
func (f *Factory) Register(name string, c Constructor) {
	f.constructors[name] = c
}

// New builds a fresh instance of the named strategy. It returns
// ErrUnknownStrategy when the identifier is not registered.
func (f *Factory) New(name string) (Strategy, error) {
	c, ok := f.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return c(), nil
}

// List returns a sorted slice of all registered strategy identifiers.
func (f *Factory) List() []string {
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
