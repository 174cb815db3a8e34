package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"signalFlipBot/config"
	"signalFlipBot/internal/account"
	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/market"
	"signalFlipBot/internal/ports"
	"signalFlipBot/internal/positions"
	"signalFlipBot/internal/risk"
)

// Reason codes carried by failed outcomes.
const (
	ReasonInvalidSignal        = "INVALID_SIGNAL"
	ReasonBusy                 = "BUSY"
	ReasonPositionsUnavailable = "POSITIONS_UNAVAILABLE"
	ReasonSizeZero             = "SIZE_ZERO"
	ReasonOpenTransportFailure = "OPEN_TRANSPORT_FAILURE"
)

// FlipOutcome is the single record describing everything one flip attempted.
// It is returned to the caller and never stored.
type FlipOutcome struct {
	OK              bool                    `json:"ok"`
	Reason          string                  `json:"reason,omitempty"`
	Error           string                  `json:"error,omitempty"`
	FlipID          string                  `json:"flipId"`
	Exchange        string                  `json:"exchange"`
	Instrument      string                  `json:"symbol"`
	Direction       domain.Direction        `json:"direction"`
	Size            decimal.Decimal         `json:"size"`
	Meta            *risk.Meta              `json:"meta,omitempty"`
	PositionMode    *account.ConfigResult   `json:"positionMode,omitempty"`
	Leverage        *account.ConfigResult   `json:"leverage,omitempty"`
	Closed          *positions.CloseOutcome `json:"closed"` // null when no opposite position was seen
	Opened          *ports.Result           `json:"opened"` // the order response, verbatim
	ClientOrderID   string                  `json:"clientOrderId,omitempty"`
	Positions       []domain.Position       `json:"positions"`
	PositionsResult *ports.Result           `json:"positionsResult,omitempty"` // set when the final listing failed
	StartedAt       time.Time               `json:"startedAt"`
	DurationMs      int64                   `json:"durationMs"`
}

// FlipService brings one instrument's position into the requested direction.
type FlipService struct {
	cfg          *config.Config
	logger       ports.Logger
	exchange     ports.Exchange
	metrics      ports.Metrics
	configurator *account.Configurator
	sizer        *risk.Sizer
	closer       *positions.Closer
	locks        *InstrumentLocks
}

// NewFlipService wires the flip pipeline over one exchange.
func NewFlipService(cfg *config.Config, logger ports.Logger, exchange ports.Exchange, metrics ports.Metrics) (*FlipService, error) {
	// Validate dependencies
	if cfg == nil || logger == nil || exchange == nil {
		return nil, fmt.Errorf("missing required dependencies for FlipService: %w", ports.ErrConfigurationError)
	}
	if cfg.SettlementCurrency == "" {
		return nil, fmt.Errorf("settlement currency must be set: %w", ports.ErrConfigurationError)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	reader := market.NewReader(exchange, cfg.DefaultLotSize, logger)
	return &FlipService{
		cfg:          cfg,
		logger:       logger,
		exchange:     exchange,
		metrics:      metrics,
		configurator: account.NewConfigurator(exchange, logger),
		sizer:        risk.NewSizer(reader, cfg.SettlementCurrency, logger),
		closer: positions.NewCloser(exchange, positions.Config{
			MarginMode:      cfg.MarginMode,
			ConfirmInterval: cfg.CloseConfirmInterval,
			ConfirmTimeout:  cfg.CloseConfirmTimeout,
		}, metrics, logger),
		locks: NewInstrumentLocks(),
	}, nil
}

// Flip runs the sequence configure, detect opposite, close, size, open.
// Once the instrument lock is held the run is not cancelled by ctx, so a
// mutation is never abandoned midway.
func (s *FlipService) Flip(ctx context.Context, sig domain.Signal) *FlipOutcome {
	out := &FlipOutcome{
		FlipID:     uuid.NewString(),
		Exchange:   s.exchange.Name(),
		Instrument: sig.Instrument,
		Direction:  sig.Direction,
		Size:       decimal.Zero,
		Positions:  []domain.Position{},
		StartedAt:  time.Now().UTC(),
	}

	if err := sig.Validate(s.cfg.MaxLeverage); err != nil {
		return s.finish(ctx, out, ReasonInvalidSignal, err, false)
	}

	// Spellings the venue treats as one market share one lock.
	release, err := s.locks.Acquire(ctx, s.exchange.InstrumentKey(sig.Instrument), s.cfg.FlipLockTimeout)
	if err != nil {
		return s.finish(ctx, out, ReasonBusy, err, true)
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	s.logger.Info(ctx, "Flip started", s.fields(out))

	mode := s.configurator.EnsurePositionMode(ctx)
	out.PositionMode = &mode
	lev := s.configurator.SetLeverage(ctx, sig.Instrument, sig.Leverage, s.cfg.MarginMode)
	out.Leverage = &lev

	opposite := sig.Direction.Opposite().PositionSide()
	det := s.closer.Detect(ctx, sig.Instrument, opposite)
	if !det.Result.OK() {
		return s.finish(ctx, out, ReasonPositionsUnavailable,
			fmt.Errorf("cannot tell whether a %s position is open: %s", opposite, det.Result), true)
	}
	if det.Found() {
		out.Closed = s.closer.Close(ctx, sig.Instrument, opposite, det.Quantity)
	}

	// Sizing runs after the close so released margin is seen.
	size := s.sizer.Size(ctx, risk.SizeRequest{Instrument: sig.Instrument, Percent: sig.Percent, Leverage: sig.Leverage})
	out.Meta = &size.Meta
	out.Size = size.Quantity
	if size.IsZero() {
		return s.finish(ctx, out, ReasonSizeZero,
			fmt.Errorf("computed size is zero (balance %s, price %s, lot %s)", size.Meta.Balance, size.Meta.Price, size.Meta.LotSize), true)
	}

	out.ClientOrderID = strings.ReplaceAll(uuid.NewString(), "-", "")
	res := s.exchange.PlaceMarketOrder(ctx, domain.OrderRequest{
		Instrument:    sig.Instrument,
		Side:          sig.Direction.OpenSide(),
		PositionSide:  sig.Direction.PositionSide(),
		Quantity:      size.Quantity,
		MarginMode:    s.cfg.MarginMode,
		ClientOrderID: out.ClientOrderID,
	})
	out.Opened = res.Ptr()
	if res.IsTransportFailure() {
		return s.finish(ctx, out, ReasonOpenTransportFailure, fmt.Errorf("open order failed: %s", res), true)
	}

	out.OK = true
	return s.finish(ctx, out, "", nil, true)
}

// finish stamps the terminal state, attaches a fresh position listing and
// records the outcome.
func (s *FlipService) finish(ctx context.Context, out *FlipOutcome, reason string, err error, listPositions bool) *FlipOutcome {
	out.Reason = reason
	if err != nil {
		out.Error = err.Error()
	}
	if listPositions {
		current, res := s.exchange.GetPositions(ctx, out.Instrument)
		if res.OK() {
			out.Positions = domain.FilterInstrument(current, out.Instrument)
		} else {
			out.PositionsResult = res.Ptr()
		}
	}

	elapsed := time.Since(out.StartedAt)
	out.DurationMs = elapsed.Milliseconds()

	result := "ok"
	if !out.OK {
		result = strings.ToLower(reason)
	}
	s.metrics.ObserveFlip(string(out.Direction), result, elapsed)

	fields := s.fields(out)
	fields["size"] = out.Size.String()
	fields["durationMs"] = out.DurationMs
	if out.Opened != nil {
		fields["opened"] = out.Opened.String()
	}
	if out.OK {
		s.logger.Info(ctx, "Flip finished", fields)
	} else {
		fields["reason"] = reason
		s.logger.Error(ctx, err, "Flip aborted", fields)
	}
	return out
}

func (s *FlipService) fields(out *FlipOutcome) map[string]interface{} {
	return map[string]interface{}{
		"flipId":     out.FlipID,
		"exchange":   out.Exchange,
		"instrument": out.Instrument,
		"direction":  out.Direction,
	}
}

// Positions returns the current open positions on the instrument.
func (s *FlipService) Positions(ctx context.Context, instrument string) ([]domain.Position, ports.Result) {
	current, res := s.exchange.GetPositions(ctx, instrument)
	if !res.OK() {
		return nil, res
	}
	return domain.FilterInstrument(current, instrument), res
}

// PreviewSize computes the quantity a flip would open right now without
// touching the account.
func (s *FlipService) PreviewSize(ctx context.Context, instrument string, percent decimal.Decimal, leverage int) risk.SizeResult {
	return s.sizer.Size(ctx, risk.SizeRequest{Instrument: instrument, Percent: percent, Leverage: leverage})
}

// EnsurePositionMode exposes the account configurator for operator tooling.
func (s *FlipService) EnsurePositionMode(ctx context.Context) account.ConfigResult {
	return s.configurator.EnsurePositionMode(ctx)
}
