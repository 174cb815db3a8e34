// Package positions detects and closes an open position on one side of an instrument.
package positions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

// Close states.
const (
	StateClosed     = "closed"      // close-whole accepted
	StateReduceOnly = "reduce_only" // fallback order accepted
	StateFailed     = "failed"      // neither request accepted
)

const (
	DefaultConfirmInterval = 200 * time.Millisecond
	DefaultConfirmTimeout  = 3 * time.Second
)

// Detection is the observed open quantity on one side.
type Detection struct {
	Side      domain.PositionSide `json:"side"`
	Quantity  decimal.Decimal     `json:"quantity"`
	Positions []domain.Position   `json:"positions"`
	Result    ports.Result        `json:"result"`
}

// Found reports whether there is anything to close.
func (d Detection) Found() bool {
	return d.Result.OK() && d.Quantity.IsPositive()
}

// CloseOutcome records one close attempt.
type CloseOutcome struct {
	State            string              `json:"state"`
	Side             domain.PositionSide `json:"side"`
	ObservedQuantity decimal.Decimal     `json:"observedQuantity"`
	CloseWhole       ports.Result        `json:"closeWhole"`
	ReduceOnly       *ports.Result       `json:"reduceOnly,omitempty"`
	Confirmed        bool                `json:"confirmed"`
	Polls            int                 `json:"polls"`
}

// Config holds the closer's timing and margin settings.
type Config struct {
	MarginMode      domain.MarginMode
	ConfirmInterval time.Duration
	ConfirmTimeout  time.Duration
}

// Closer runs the close state machine: close-whole, reduce-only fallback, confirm.
type Closer struct {
	exchange ports.Exchange
	metrics  ports.Metrics
	logger   ports.Logger
	cfg      Config
}

// NewCloser creates a closer. Zero timings fall back to the defaults.
func NewCloser(exchange ports.Exchange, cfg Config, metrics ports.Metrics, logger ports.Logger) *Closer {
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = DefaultConfirmInterval
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.MarginMode == "" {
		cfg.MarginMode = domain.MarginCross
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Closer{exchange: exchange, metrics: metrics, logger: logger, cfg: cfg}
}

// Detect reads open positions and sums the quantity on side.
func (c *Closer) Detect(ctx context.Context, instrument string, side domain.PositionSide) Detection {
	positions, res := c.exchange.GetPositions(ctx, instrument)
	det := Detection{Side: side, Quantity: decimal.Zero, Positions: positions, Result: res}
	if !res.OK() {
		c.logger.Warn(ctx, "Position detection failed", map[string]interface{}{
			"instrument": instrument,
			"side":       side,
			"result":     res.String(),
		})
		return det
	}
	det.Quantity = domain.QuantityOn(positions, instrument, side)
	return det
}

// Close closes the side's position. observed is the last quantity read by
// Detect and sizes the reduce-only fallback. Exactly one close-whole request
// is sent, followed by at most one fallback order.
func (c *Closer) Close(ctx context.Context, instrument string, side domain.PositionSide, observed decimal.Decimal) *CloseOutcome {
	out := &CloseOutcome{Side: side, ObservedQuantity: observed}
	fields := map[string]interface{}{"instrument": instrument, "side": side, "observed": observed.String()}

	out.CloseWhole = c.exchange.ClosePosition(ctx, instrument, side, c.cfg.MarginMode)
	if out.CloseWhole.OK() {
		out.State = StateClosed
		c.logger.Info(ctx, "Close-whole accepted", fields)
	} else {
		fields["closeWhole"] = out.CloseWhole.String()
		c.logger.Warn(ctx, "Close-whole not accepted, falling back to reduce-only order", fields)
		c.metrics.ObserveCloseFallback(c.exchange.Name())

		res := c.exchange.PlaceMarketOrder(ctx, domain.OrderRequest{
			Instrument:   instrument,
			Side:         side.CloseSide(),
			PositionSide: side,
			Quantity:     observed,
			MarginMode:   c.cfg.MarginMode,
			ReduceOnly:   true,
		})
		out.ReduceOnly = res.Ptr()
		if res.OK() {
			out.State = StateReduceOnly
		} else {
			out.State = StateFailed
			fields["reduceOnly"] = res.String()
			c.logger.Warn(ctx, "Reduce-only close not accepted", fields)
		}
	}

	out.Confirmed, out.Polls = c.confirm(ctx, instrument, side)
	fields["state"] = out.State
	fields["confirmed"] = out.Confirmed
	fields["polls"] = out.Polls
	if out.Confirmed {
		c.logger.Info(ctx, "Close confirmed", fields)
	} else {
		c.logger.Warn(ctx, "Close not confirmed within timeout", fields)
	}
	return out
}

// confirm polls open positions at a fixed interval until the side reads flat
// or the attempts run out. A failed read counts as an attempt.
func (c *Closer) confirm(ctx context.Context, instrument string, side domain.PositionSide) (bool, int) {
	attempts := int(c.cfg.ConfirmTimeout / c.cfg.ConfirmInterval)
	if attempts < 1 {
		attempts = 1
	}
	timer := time.NewTimer(c.cfg.ConfirmInterval)
	defer timer.Stop()

	for polls := 1; polls <= attempts; polls++ {
		select {
		case <-ctx.Done():
			return false, polls - 1
		case <-timer.C:
		}
		positions, res := c.exchange.GetPositions(ctx, instrument)
		if res.OK() && !domain.QuantityOn(positions, instrument, side).IsPositive() {
			return true, polls
		}
		timer.Reset(c.cfg.ConfirmInterval)
	}
	return false, attempts
}
