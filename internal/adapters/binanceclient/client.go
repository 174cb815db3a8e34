package binanceclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// Binance answers -4046 when the margin type already matches.
	codeNoNeedToChangeMarginType = -4046
)

var _ ports.Exchange = (*Client)(nil)

// Client implements the ports.Exchange interface for Binance USDⓈ-M futures
// using the go-binance library. Dual-direction mode is Binance "hedge mode".
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // overrides the testnet/production choice (tests)
	Timeout    time.Duration
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("Binance credentials are incomplete: %w", ports.ErrInvalidAPIKeys)
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.Timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// Name identifies the venue.
func (c *Client) Name() string { return "binance" }

// InstrumentKey maps every accepted spelling onto the Binance symbol.
func (c *Client) InstrumentKey(instrument string) string { return Symbol(instrument) }

// Symbol converts an OKX-style instrument id (SOL-USDT-SWAP) into the Binance
// symbol (SOLUSDT). Binance-native symbols pass through unchanged.
func Symbol(instrument string) string {
	s := strings.ToUpper(strings.TrimSpace(instrument))
	s = strings.TrimSuffix(s, "-SWAP")
	return strings.ReplaceAll(s, "-", "")
}

// handleError translates Binance API errors into normalized results:
// anything the exchange answered becomes Rejected with its code, everything
// else (network, deadline, decoding) becomes a TransportFailure.
func (c *Client) handleError(ctx context.Context, err error, operation string) ports.Result {
	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to standard errors for the message
		var mappedErr error
		switch apiErr.Code {
		case -1001: // Internal error; unable to process your request
			mappedErr = ports.ErrExchangeUnavailable
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -2014, -2015: // API-key format invalid / Invalid API-key, IP, or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -2019, -3005: // Margin is insufficient / Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		case -2022: // ReduceOnly Order is rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -4044: // Position not found
			mappedErr = ports.ErrPositionNotFound
		case -1101, -1102, -1106, -1111, -1116, -4003, -4015, -4061: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Warn(ctx, fmt.Sprintf("%s rejected by exchange", operation), fields)
		return ports.Rejected(strconv.FormatInt(apiErr.Code, 10), fmt.Sprintf("%v: %s", mappedErr, apiErr.Message), nil)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var wrapped error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		wrapped = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		wrapped = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	default:
		wrapped = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	}
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return ports.TransportFailure("", wrapped.Error())
}

// success wraps a decoded go-binance response back into raw JSON so callers
// see the exchange payload verbatim.
func success(v interface{}) ports.Result {
	raw, err := json.Marshal(v)
	if err != nil {
		return ports.Success("0", nil)
	}
	return ports.Success("0", raw)
}

// GetPositionMode reads whether hedge mode (dual side position) is enabled.
func (c *Client) GetPositionMode(ctx context.Context) (domain.PositionMode, ports.Result) {
	op := "GetPositionMode"
	mode, err := c.futuresClient.NewGetPositionModeService().Do(ctx)
	if err != nil {
		return domain.PositionModeUnknown, c.handleError(ctx, err, op)
	}
	if mode.DualSidePosition {
		return domain.PositionModeLongShort, success(mode)
	}
	return domain.PositionModeNet, success(mode)
}

// SetPositionMode switches hedge mode on (long_short_mode) or off (net_mode).
func (c *Client) SetPositionMode(ctx context.Context, mode domain.PositionMode) ports.Result {
	op := "SetPositionMode"
	err := c.futuresClient.NewChangePositionModeService().
		DualSide(mode == domain.PositionModeLongShort).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"mode": mode})
	return ports.Success("0", nil)
}

// SetLeverage aligns the symbol's margin type, then sets its leverage.
func (c *Client) SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) ports.Result {
	op := "SetLeverage"
	symbol := Symbol(instrument)

	marginType := futures.MarginTypeCrossed
	if marginMode == domain.MarginIsolated {
		marginType = futures.MarginTypeIsolated
	}
	err := c.futuresClient.NewChangeMarginTypeService().Symbol(symbol).MarginType(marginType).Do(ctx)
	var apiErr *common.APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Code == codeNoNeedToChangeMarginType) {
		return c.handleError(ctx, err, op+" margin type")
	}

	res, err := c.futuresClient.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "leverage": leverage})
	return success(res)
}

// GetBalances lists available balance per asset.
func (c *Client) GetBalances(ctx context.Context, currency string) ([]domain.Balance, ports.Result) {
	op := "GetBalances"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	out := make([]domain.Balance, 0, len(account.Assets))
	for _, bal := range account.Assets {
		if currency != "" && bal.Asset != currency {
			continue
		}
		out = append(out, domain.Balance{Currency: bal.Asset, Available: parseDecimal(bal.AvailableBalance)})
	}
	return out, ports.Success("0", nil)
}

// GetTicker retrieves the last ticker price for an instrument.
func (c *Client) GetTicker(ctx context.Context, instrument string) (*domain.Ticker, ports.Result) {
	op := "GetTicker"
	tickers, err := c.futuresClient.NewListPriceChangeStatsService().Symbol(Symbol(instrument)).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		return nil, success(tickers)
	}
	return &domain.Ticker{Instrument: instrument, Last: parseDecimal(tickers[0].LastPrice)}, success(tickers[0])
}

// GetInstrument reads the LOT_SIZE filter from exchange info.
func (c *Client) GetInstrument(ctx context.Context, instrument string) (*domain.Instrument, ports.Result) {
	op := "GetInstrument"
	info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	symbol := Symbol(instrument)
	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		inst := &domain.Instrument{ID: instrument}
		if lot := s.LotSizeFilter(); lot != nil {
			inst.LotSize = parseDecimal(lot.StepSize)
			inst.MinSize = parseDecimal(lot.MinQuantity)
		}
		return inst, ports.Success("0", nil)
	}
	return nil, ports.Success("0", nil)
}

// GetPositions lists non-empty position records for the instrument. In hedge
// mode Binance reports LONG and SHORT rows; one-way rows (BOTH) are mapped by
// the sign of the amount.
func (c *Client) GetPositions(ctx context.Context, instrument string) ([]domain.Position, ports.Result) {
	op := "GetPositions"
	risks, err := c.futuresClient.NewGetPositionRiskService().Symbol(Symbol(instrument)).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	out := make([]domain.Position, 0, len(risks))
	for _, r := range risks {
		if p, ok := translatePositionRisk(r, instrument); ok {
			out = append(out, p)
		}
	}
	return out, success(risks)
}

// ClosePosition has no dedicated Binance endpoint; the closest single
// equivalent is a market order on the position side for the amount the
// exchange reports right now. One-way (BOTH) rows cannot take a LONG or
// SHORT positionSide, so they are closed with reduceOnly instead.
func (c *Client) ClosePosition(ctx context.Context, instrument string, side domain.PositionSide, marginMode domain.MarginMode) ports.Result {
	op := "ClosePosition"
	risks, err := c.futuresClient.NewGetPositionRiskService().Symbol(Symbol(instrument)).Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	qty := decimal.Zero
	oneWay := false
	for _, r := range risks {
		p, ok := translatePositionRisk(r, instrument)
		if !ok || p.Side != side {
			continue
		}
		qty = qty.Add(p.Quantity)
		if !isHedgeSide(r.PositionSide) {
			oneWay = true
		}
	}
	if !qty.IsPositive() {
		return ports.Rejected("-4044", ports.ErrPositionNotFound.Error(), nil)
	}
	req := domain.OrderRequest{
		Instrument: instrument,
		Side:       side.CloseSide(),
		Quantity:   qty,
		MarginMode: marginMode,
	}
	if oneWay {
		req.ReduceOnly = true
	} else {
		req.PositionSide = side
	}
	return c.PlaceMarketOrder(ctx, req)
}

func isHedgeSide(positionSide string) bool {
	switch strings.ToUpper(positionSide) {
	case string(futures.PositionSideTypeLong), string(futures.PositionSideTypeShort):
		return true
	}
	return false
}

// PlaceMarketOrder places a market order. In hedge mode Binance rejects the
// reduceOnly parameter; an order on the opposite trading side of a LONG or
// SHORT position side can only reduce it, so the flag is dropped there.
func (c *Client) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) ports.Result {
	op := "PlaceMarketOrder"
	svc := c.futuresClient.NewCreateOrderService().
		Symbol(Symbol(req.Instrument)).
		Side(futures.SideType(strings.ToUpper(string(req.Side)))).
		Type(futures.OrderTypeMarket).
		Quantity(req.Quantity.String())
	switch req.PositionSide {
	case domain.SideLong:
		svc = svc.PositionSide(futures.PositionSideTypeLong)
	case domain.SideShort:
		svc = svc.PositionSide(futures.PositionSideTypeShort)
	default:
		if req.ReduceOnly {
			svc = svc.ReduceOnly(true)
		}
	}
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":     order.Symbol,
		"side":       req.Side,
		"quantity":   req.Quantity.String(),
		"reduceOnly": req.ReduceOnly,
		"orderID":    order.OrderID,
	})
	return success(order)
}

// --- Translation Helpers ---

func translatePositionRisk(pos *futures.PositionRisk, instrument string) (domain.Position, bool) {
	if pos == nil {
		return domain.Position{}, false
	}
	amt := parseDecimal(pos.PositionAmt)
	if amt.IsZero() {
		return domain.Position{}, false
	}
	var side domain.PositionSide
	switch strings.ToUpper(pos.PositionSide) {
	case string(futures.PositionSideTypeLong):
		side = domain.SideLong
	case string(futures.PositionSideTypeShort):
		side = domain.SideShort
	default:
		side = domain.SideLong
		if amt.IsNegative() {
			side = domain.SideShort
		}
	}
	margin := domain.MarginCross
	if strings.EqualFold(pos.MarginType, "isolated") {
		margin = domain.MarginIsolated
	}
	return domain.Position{
		Instrument: instrument,
		Side:       side,
		Quantity:   amt.Abs(),
		AvgPrice:   parseDecimal(pos.EntryPrice),
		Leverage:   pos.Leverage,
		MarginMode: margin,
	}, true
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
