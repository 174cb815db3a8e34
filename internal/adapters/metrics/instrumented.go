package metrics

import (
	"context"
	"time"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

var _ ports.Exchange = (*InstrumentedExchange)(nil)

// InstrumentedExchange records every call of the wrapped exchange.
type InstrumentedExchange struct {
	next    ports.Exchange
	metrics ports.Metrics
	now     func() time.Time
}

// Instrument wraps next so each call is observed by m.
func Instrument(next ports.Exchange, m ports.Metrics) *InstrumentedExchange {
	return &InstrumentedExchange{next: next, metrics: m, now: time.Now}
}

func (e *InstrumentedExchange) observe(op string, start time.Time, res ports.Result) {
	e.metrics.ObserveExchangeCall(e.next.Name(), op, res.Status, e.now().Sub(start))
}

func (e *InstrumentedExchange) Name() string { return e.next.Name() }

func (e *InstrumentedExchange) InstrumentKey(instrument string) string {
	return e.next.InstrumentKey(instrument)
}

func (e *InstrumentedExchange) GetPositionMode(ctx context.Context) (domain.PositionMode, ports.Result) {
	start := e.now()
	mode, res := e.next.GetPositionMode(ctx)
	e.observe("get_position_mode", start, res)
	return mode, res
}

func (e *InstrumentedExchange) SetPositionMode(ctx context.Context, mode domain.PositionMode) ports.Result {
	start := e.now()
	res := e.next.SetPositionMode(ctx, mode)
	e.observe("set_position_mode", start, res)
	return res
}

func (e *InstrumentedExchange) SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) ports.Result {
	start := e.now()
	res := e.next.SetLeverage(ctx, instrument, leverage, marginMode)
	e.observe("set_leverage", start, res)
	return res
}

func (e *InstrumentedExchange) GetBalances(ctx context.Context, currency string) ([]domain.Balance, ports.Result) {
	start := e.now()
	out, res := e.next.GetBalances(ctx, currency)
	e.observe("get_balances", start, res)
	return out, res
}

func (e *InstrumentedExchange) GetTicker(ctx context.Context, instrument string) (*domain.Ticker, ports.Result) {
	start := e.now()
	out, res := e.next.GetTicker(ctx, instrument)
	e.observe("get_ticker", start, res)
	return out, res
}

func (e *InstrumentedExchange) GetInstrument(ctx context.Context, instrument string) (*domain.Instrument, ports.Result) {
	start := e.now()
	out, res := e.next.GetInstrument(ctx, instrument)
	e.observe("get_instrument", start, res)
	return out, res
}

func (e *InstrumentedExchange) GetPositions(ctx context.Context, instrument string) ([]domain.Position, ports.Result) {
	start := e.now()
	out, res := e.next.GetPositions(ctx, instrument)
	e.observe("get_positions", start, res)
	return out, res
}

func (e *InstrumentedExchange) ClosePosition(ctx context.Context, instrument string, side domain.PositionSide, marginMode domain.MarginMode) ports.Result {
	start := e.now()
	res := e.next.ClosePosition(ctx, instrument, side, marginMode)
	e.observe("close_position", start, res)
	return res
}

func (e *InstrumentedExchange) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) ports.Result {
	start := e.now()
	res := e.next.PlaceMarketOrder(ctx, req)
	op := "place_market_order"
	if req.ReduceOnly {
		op = "place_reduce_only_order"
	}
	e.observe(op, start, res)
	return res
}
