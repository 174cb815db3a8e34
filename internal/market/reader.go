// Package market reads the live values sizing depends on: available balance,
// last price and lot size. Every read goes to the exchange; nothing is cached.
package market

import (
	"context"

	"github.com/shopspring/decimal"

	"signalFlipBot/internal/ports"
)

// DefaultLotSize is used when the exchange does not report a usable lot size.
var DefaultLotSize = decimal.RequireFromString("0.01")

// Reader wraps the exchange's read-only market and account queries.
type Reader struct {
	exchange   ports.Exchange
	defaultLot decimal.Decimal
	logger     ports.Logger
}

// NewReader creates a reader. A non-positive defaultLot falls back to DefaultLotSize.
func NewReader(exchange ports.Exchange, defaultLot decimal.Decimal, logger ports.Logger) *Reader {
	if !defaultLot.IsPositive() {
		defaultLot = DefaultLotSize
	}
	return &Reader{exchange: exchange, defaultLot: defaultLot, logger: logger}
}

// Balance returns the available equity of currency, or zero when the
// currency is absent or the read failed.
func (r *Reader) Balance(ctx context.Context, currency string) (decimal.Decimal, ports.Result) {
	balances, res := r.exchange.GetBalances(ctx, currency)
	if !res.OK() {
		r.logger.Warn(ctx, "Balance read failed, using zero", map[string]interface{}{"currency": currency, "result": res.String()})
		return decimal.Zero, res
	}
	for _, b := range balances {
		if b.Currency == currency {
			return b.Available, res
		}
	}
	r.logger.Debug(ctx, "Currency not present in balance", map[string]interface{}{"currency": currency})
	return decimal.Zero, res
}

// Price returns the last traded price, or zero when there is no ticker.
func (r *Reader) Price(ctx context.Context, instrument string) (decimal.Decimal, ports.Result) {
	ticker, res := r.exchange.GetTicker(ctx, instrument)
	if !res.OK() || ticker == nil {
		r.logger.Warn(ctx, "No ticker price, using zero", map[string]interface{}{"instrument": instrument, "result": res.String()})
		return decimal.Zero, res
	}
	return ticker.Last, res
}

// LotSize returns the instrument's lot size, or the configured default when
// the instrument is unknown or reports a non-positive lot.
func (r *Reader) LotSize(ctx context.Context, instrument string) (decimal.Decimal, ports.Result) {
	inst, res := r.exchange.GetInstrument(ctx, instrument)
	if !res.OK() || inst == nil || !inst.LotSize.IsPositive() {
		r.logger.Warn(ctx, "Lot size unavailable, using default", map[string]interface{}{
			"instrument": instrument,
			"default":    r.defaultLot.String(),
			"result":     res.String(),
		})
		return r.defaultLot, res
	}
	return inst.LotSize, res
}
