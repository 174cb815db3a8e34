// Package exchangetest provides an in-memory ports.Exchange for tests.
package exchangetest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

// Operation names recorded in Fake.Calls.
const (
	OpGetPositionMode  = "GetPositionMode"
	OpSetPositionMode  = "SetPositionMode"
	OpSetLeverage      = "SetLeverage"
	OpGetBalances      = "GetBalances"
	OpGetTicker        = "GetTicker"
	OpGetInstrument    = "GetInstrument"
	OpGetPositions     = "GetPositions"
	OpClosePosition    = "ClosePosition"
	OpPlaceMarketOrder = "PlaceMarketOrder"
)

var _ ports.Exchange = (*Fake)(nil)

// Fake is a scripted exchange. A zero Result field means the call succeeds.
// Successful close and order calls update Positions the way a venue would,
// unless FreezePositions is set.
type Fake struct {
	mu sync.Mutex

	Mode               domain.PositionMode
	ModeResult         ports.Result
	SetModeResult      ports.Result
	LeverageResult     ports.Result
	Balances           []domain.Balance
	BalanceResult      ports.Result
	Ticker             *domain.Ticker
	TickerResult       ports.Result
	Instrument         *domain.Instrument
	InstrumentResult   ports.Result
	Positions          []domain.Position
	PositionsResult    ports.Result
	CloseResult        ports.Result
	OrderResult        ports.Result
	FreezePositions    bool
	PositionsFailAfter int // when > 0, GetPositions fails with PositionsResult from this call number on
	Keys               func(string) string

	Calls        []string
	Orders       []domain.OrderRequest
	LeverageSets []int
	positionsN   int
}

// New returns a fake with a USDT balance, a price and a lot size set.
func New(balance, price, lot string) *Fake {
	return &Fake{
		Mode:       domain.PositionModeLongShort,
		Balances:   []domain.Balance{{Currency: "USDT", Available: decimal.RequireFromString(balance)}},
		Ticker:     &domain.Ticker{Last: decimal.RequireFromString(price)},
		Instrument: &domain.Instrument{LotSize: decimal.RequireFromString(lot), MinSize: decimal.RequireFromString(lot)},
	}
}

// Name identifies the venue.
func (f *Fake) Name() string { return "fake" }

// InstrumentKey applies Keys when set and is the identity otherwise.
func (f *Fake) InstrumentKey(instrument string) string {
	if f.Keys != nil {
		return f.Keys(instrument)
	}
	return instrument
}

func or(r ports.Result) ports.Result {
	if r.Status == "" {
		return ports.Success("0", nil)
	}
	return r
}

func (f *Fake) record(op string) {
	f.Calls = append(f.Calls, op)
}

// CallLog returns a copy of the operations issued so far.
func (f *Fake) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// Count returns how many times op was issued.
func (f *Fake) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *Fake) GetPositionMode(ctx context.Context) (domain.PositionMode, ports.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpGetPositionMode)
	res := or(f.ModeResult)
	if !res.OK() {
		return domain.PositionModeUnknown, res
	}
	return f.Mode, res
}

func (f *Fake) SetPositionMode(ctx context.Context, mode domain.PositionMode) ports.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpSetPositionMode)
	res := or(f.SetModeResult)
	if res.OK() {
		f.Mode = mode
	}
	return res
}

func (f *Fake) SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) ports.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpSetLeverage)
	f.LeverageSets = append(f.LeverageSets, leverage)
	return or(f.LeverageResult)
}

func (f *Fake) GetBalances(ctx context.Context, currency string) ([]domain.Balance, ports.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpGetBalances)
	res := or(f.BalanceResult)
	if !res.OK() {
		return nil, res
	}
	return append([]domain.Balance(nil), f.Balances...), res
}

func (f *Fake) GetTicker(ctx context.Context, instrument string) (*domain.Ticker, ports.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpGetTicker)
	res := or(f.TickerResult)
	if !res.OK() || f.Ticker == nil {
		return nil, res
	}
	t := *f.Ticker
	t.Instrument = instrument
	return &t, res
}

func (f *Fake) GetInstrument(ctx context.Context, instrument string) (*domain.Instrument, ports.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpGetInstrument)
	res := or(f.InstrumentResult)
	if !res.OK() || f.Instrument == nil {
		return nil, res
	}
	i := *f.Instrument
	i.ID = instrument
	return &i, res
}

func (f *Fake) GetPositions(ctx context.Context, instrument string) ([]domain.Position, ports.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpGetPositions)
	f.positionsN++
	if f.PositionsFailAfter > 0 && f.positionsN >= f.PositionsFailAfter {
		return nil, f.PositionsResult
	}
	res := or(f.PositionsResult)
	if f.PositionsFailAfter > 0 {
		res = ports.Success("0", nil)
	}
	if !res.OK() {
		return nil, res
	}
	return domain.FilterInstrument(f.Positions, instrument), res
}

func (f *Fake) ClosePosition(ctx context.Context, instrument string, side domain.PositionSide, marginMode domain.MarginMode) ports.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpClosePosition)
	res := or(f.CloseResult)
	if res.OK() && !f.FreezePositions {
		f.reduce(instrument, side, decimal.Zero, true)
	}
	return res
}

func (f *Fake) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) ports.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpPlaceMarketOrder)
	f.Orders = append(f.Orders, req)
	res := or(f.OrderResult)
	if !res.OK() || f.FreezePositions {
		return res
	}
	if req.ReduceOnly {
		f.reduce(req.Instrument, req.PositionSide, req.Quantity, false)
		return res
	}
	f.Positions = append(f.Positions, domain.Position{
		Instrument: req.Instrument,
		Side:       req.PositionSide,
		Quantity:   req.Quantity,
		MarginMode: req.MarginMode,
	})
	return res
}

// reduce removes qty from the side's records; whole drops them entirely.
func (f *Fake) reduce(instrument string, side domain.PositionSide, qty decimal.Decimal, whole bool) {
	kept := f.Positions[:0]
	for _, p := range f.Positions {
		if p.Instrument == instrument && p.Side == side {
			if whole || !qty.LessThan(p.Quantity) {
				qty = qty.Sub(p.Quantity)
				continue
			}
			p.Quantity = p.Quantity.Sub(qty)
			qty = decimal.Zero
			if !p.IsOpen() {
				continue
			}
		}
		kept = append(kept, p)
	}
	f.Positions = kept
}
