package market

import (
	"context"
	"errors"
	"time"

	"OptionPilot/internal/model"
)

// ErrNoData is returned when the venue has no data for a request. Callers
// degrade to an empty "no data" state; it never crashes a workflow.
var ErrNoData = errors.New("no market data available")

// Source provides price history and option chain snapshots. Implementations
// must return ErrNoData (possibly wrapped) for empty venue responses.
type Source interface {
	Name() string
	GetBars(ctx context.Context, symbol string, lookbackDays int) ([]model.OHLCV, error)
	GetLatestBar(ctx context.Context, symbol string) (model.OHLCV, error)
	GetExpiries(ctx context.Context, symbol string) ([]time.Time, error)
	// GetOptionChain returns the single-expiry chain for one side. The
	// direction is an explicit input; it is never derived from contract
	// symbols.
	GetOptionChain(ctx context.Context, symbol string, expiry time.Time, dir model.Direction) ([]model.OptionContract, error)
}
