package risk

import (
	"context"

	"github.com/shopspring/decimal"

	"signalFlipBot/internal/ports"
)

// rawPrecision is the number of fractional digits reported for the unrounded quantity.
const rawPrecision = 18

// SizeInput holds the live values a quantity is derived from.
type SizeInput struct {
	Balance  decimal.Decimal
	Price    decimal.Decimal
	LotSize  decimal.Decimal
	Percent  decimal.Decimal
	Leverage int
}

// Meta describes how a quantity was reached. It is returned with every
// outcome, including aborted ones, for diagnosis.
type Meta struct {
	Balance     decimal.Decimal `json:"balance"`
	Price       decimal.Decimal `json:"price"`
	LotSize     decimal.Decimal `json:"lotSize"`
	Percent     decimal.Decimal `json:"percent"`
	Leverage    int             `json:"leverage"`
	Notional    decimal.Decimal `json:"notional"`
	RawQuantity decimal.Decimal `json:"rawQuantity"`
	Steps       decimal.Decimal `json:"steps"`
	Degraded    []string        `json:"degraded,omitempty"` // reads that fell back to defaults
}

// SizeResult is a lot-aligned quantity plus the metadata behind it.
type SizeResult struct {
	Quantity decimal.Decimal `json:"quantity"`
	Meta     Meta            `json:"meta"`
}

// IsZero reports whether nothing can be opened.
func (r SizeResult) IsZero() bool {
	return !r.Quantity.IsPositive()
}

// ComputeSize turns a share of the balance into an exchange-legal quantity:
// notional = balance * percent/100 * leverage, quantity = floor(notional / (price*lot)) * lot.
// The division into whole lots is exact, so the result never exceeds the
// notional and never carries float residue.
func ComputeSize(in SizeInput) SizeResult {
	meta := Meta{
		Balance:     in.Balance,
		Price:       in.Price,
		LotSize:     in.LotSize,
		Percent:     in.Percent,
		Leverage:    in.Leverage,
		Notional:    decimal.Zero,
		RawQuantity: decimal.Zero,
		Steps:       decimal.Zero,
	}
	if !in.Balance.IsPositive() || !in.Price.IsPositive() || !in.LotSize.IsPositive() {
		return SizeResult{Quantity: decimal.Zero, Meta: meta}
	}

	meta.Notional = in.Balance.Mul(in.Percent).Shift(-2).Mul(decimal.NewFromInt(int64(in.Leverage)))
	meta.RawQuantity = meta.Notional.DivRound(in.Price, rawPrecision)
	if !meta.Notional.IsPositive() {
		return SizeResult{Quantity: decimal.Zero, Meta: meta}
	}

	steps, _ := meta.Notional.QuoRem(in.Price.Mul(in.LotSize), 0)
	meta.Steps = steps
	return SizeResult{Quantity: steps.Mul(in.LotSize), Meta: meta}
}

// MarketReader is the subset of market.Reader the sizer needs.
type MarketReader interface {
	Balance(ctx context.Context, currency string) (decimal.Decimal, ports.Result)
	Price(ctx context.Context, instrument string) (decimal.Decimal, ports.Result)
	LotSize(ctx context.Context, instrument string) (decimal.Decimal, ports.Result)
}

// SizeRequest asks for a quantity on one instrument.
type SizeRequest struct {
	Instrument string
	Percent    decimal.Decimal
	Leverage   int
}

// Sizer reads balance, price and lot size at call time and sizes from them.
type Sizer struct {
	reader   MarketReader
	currency string
	logger   ports.Logger
}

// NewSizer creates a sizer that draws margin from the given settlement currency.
func NewSizer(reader MarketReader, currency string, logger ports.Logger) *Sizer {
	return &Sizer{reader: reader, currency: currency, logger: logger}
}

// Size reads live market values and computes the quantity. It never uses a
// value read before the call, so margin released by a preceding close is seen.
func (s *Sizer) Size(ctx context.Context, req SizeRequest) SizeResult {
	var degraded []string

	balance, res := s.reader.Balance(ctx, s.currency)
	if !res.OK() {
		degraded = append(degraded, "balance")
	}
	price, res := s.reader.Price(ctx, req.Instrument)
	if !res.OK() {
		degraded = append(degraded, "price")
	}
	lot, res := s.reader.LotSize(ctx, req.Instrument)
	if !res.OK() {
		degraded = append(degraded, "lot_size")
	}

	out := ComputeSize(SizeInput{
		Balance:  balance,
		Price:    price,
		LotSize:  lot,
		Percent:  req.Percent,
		Leverage: req.Leverage,
	})
	out.Meta.Degraded = degraded

	s.logger.Info(ctx, "Position size computed", map[string]interface{}{
		"instrument": req.Instrument,
		"balance":    balance.String(),
		"price":      price.String(),
		"lotSize":    lot.String(),
		"percent":    req.Percent.String(),
		"leverage":   req.Leverage,
		"quantity":   out.Quantity.String(),
		"degraded":   degraded,
	})
	return out
}
