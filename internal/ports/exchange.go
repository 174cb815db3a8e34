package ports

import (
	"context"

	"signalFlipBot/internal/domain"
)

// Exchange defines the account, market and trade capabilities the flip
// orchestration consumes. Every method maps to one exchange capability
// (emulated where a venue lacks the endpoint) and reports its normalized
// Result. Values are only meaningful when the Result is OK.
type Exchange interface {
	// Name identifies the venue in logs and metrics.
	Name() string

	// InstrumentKey returns the venue's canonical spelling of an instrument,
	// so ids the venue treats as one market compare equal.
	InstrumentKey(instrument string) string

	// GetPositionMode reads the account's current position mode.
	GetPositionMode(ctx context.Context) (domain.PositionMode, Result)

	// SetPositionMode switches the account position mode.
	SetPositionMode(ctx context.Context, mode domain.PositionMode) Result

	// SetLeverage sets the leverage for an instrument under a margin mode.
	SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) Result

	// GetBalances lists available equity per settlement currency.
	GetBalances(ctx context.Context, currency string) ([]domain.Balance, Result)

	// GetTicker returns the last traded price, or nil when the exchange has no ticker.
	GetTicker(ctx context.Context, instrument string) (*domain.Ticker, Result)

	// GetInstrument returns contract metadata, or nil when the instrument is unknown.
	GetInstrument(ctx context.Context, instrument string) (*domain.Instrument, Result)

	// GetPositions lists open position records for an instrument.
	GetPositions(ctx context.Context, instrument string) ([]domain.Position, Result)

	// ClosePosition closes the whole position on one side without an explicit quantity.
	ClosePosition(ctx context.Context, instrument string, side domain.PositionSide, marginMode domain.MarginMode) Result

	// PlaceMarketOrder submits a market order, optionally reduce-only.
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) Result
}
