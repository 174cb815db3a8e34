package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{APIKey: "k", SecretKey: "s", BaseURL: srv.URL, Logger: logger.NewNop()})
	require.NoError(t, err)
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{APIKey: "k", SecretKey: "s"})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	_, err = New(Config{Logger: logger.NewNop()})
	assert.ErrorIs(t, err, ports.ErrInvalidAPIKeys)
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "SOLUSDT", Symbol("SOL-USDT-SWAP"))
	assert.Equal(t, "ETHUSDT", Symbol("ethusdt"))
	assert.Equal(t, "BTCUSDT", Symbol("BTC-USDT"))
}

func TestHandleErrorClassification(t *testing.T) {
	c := &Client{logger: logger.NewNop()}

	res := c.handleError(context.Background(), &common.APIError{Code: -2019, Message: "Margin is insufficient."}, "PlaceMarketOrder")
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.Equal(t, "-2019", res.Code)
	assert.Contains(t, res.Message, ports.ErrInsufficientFunds.Error())

	res = c.handleError(context.Background(), fmt.Errorf("do: %w", context.DeadlineExceeded), "GetPositions")
	assert.True(t, res.IsTransportFailure())
	assert.Contains(t, res.Message, ports.ErrTimeout.Error())

	res = c.handleError(context.Background(), errors.New("connection reset by peer"), "GetTicker")
	assert.True(t, res.IsTransportFailure())
	assert.Equal(t, ports.CodeTransport, res.Code)
}

func TestGetPositionMode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/positionSide/dual"))
		_, _ = io.WriteString(w, `{"dualSidePosition":true}`)
	})

	mode, res := c.GetPositionMode(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, domain.PositionModeLongShort, mode)
}

func TestGetPositionsHedgeMode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "positionRisk")
		_, _ = io.WriteString(w, `[
			{"symbol":"SOLUSDT","positionAmt":"0","entryPrice":"0","positionSide":"LONG","marginType":"cross","leverage":"10"},
			{"symbol":"SOLUSDT","positionAmt":"-12.5","entryPrice":"101.2","positionSide":"SHORT","marginType":"cross","leverage":"10"}
		]`)
	})

	positions, res := c.GetPositions(context.Background(), "SOL-USDT-SWAP")
	require.True(t, res.OK())
	require.Len(t, positions, 1)
	assert.Equal(t, domain.SideShort, positions[0].Side)
	assert.Equal(t, "12.5", positions[0].Quantity.String())
	assert.Equal(t, "SOL-USDT-SWAP", positions[0].Instrument)
}

func TestGetPositionsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`)
	})

	_, res := c.GetPositions(context.Background(), "SOL-USDT-SWAP")
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.Equal(t, "-2015", res.Code)
}

func TestTranslatePositionRiskOneWay(t *testing.T) {
	p, ok := translatePositionRisk(&futures.PositionRisk{PositionAmt: "-3", PositionSide: "BOTH", MarginType: "isolated"}, "SOL-USDT-SWAP")
	require.True(t, ok)
	assert.Equal(t, domain.SideShort, p.Side)
	assert.Equal(t, domain.MarginIsolated, p.MarginMode)

	_, ok = translatePositionRisk(&futures.PositionRisk{PositionAmt: "0"}, "SOL-USDT-SWAP")
	assert.False(t, ok)
}

// orderRecorder answers positionRisk with a fixed payload and records every order request.
type orderRecorder struct {
	mu     sync.Mutex
	risk   string
	orders []url.Values
}

func (o *orderRecorder) handle(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "positionRisk"):
			_, _ = io.WriteString(w, o.risk)
		case strings.HasSuffix(r.URL.Path, "/fapi/v1/order"):
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, r.ParseForm())
			o.mu.Lock()
			o.orders = append(o.orders, r.Form)
			o.mu.Unlock()
			_, _ = io.WriteString(w, `{"orderId":1,"symbol":"SOLUSDT","status":"NEW","side":"`+r.Form.Get("side")+`"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (o *orderRecorder) recorded() []url.Values {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]url.Values(nil), o.orders...)
}

func TestClosePositionHedgeMode(t *testing.T) {
	rec := &orderRecorder{risk: `[
		{"symbol":"SOLUSDT","positionAmt":"0","entryPrice":"0","positionSide":"LONG","marginType":"cross","leverage":"10"},
		{"symbol":"SOLUSDT","positionAmt":"-12.5","entryPrice":"101.2","positionSide":"SHORT","marginType":"cross","leverage":"10"}
	]`}
	c := newTestClient(t, rec.handle(t))

	res := c.ClosePosition(context.Background(), "SOL-USDT-SWAP", domain.SideShort, domain.MarginCross)
	require.True(t, res.OK(), res.String())

	orders := rec.recorded()
	require.Len(t, orders, 1)
	assert.Equal(t, "SOLUSDT", orders[0].Get("symbol"))
	assert.Equal(t, "BUY", orders[0].Get("side"))
	assert.Equal(t, "MARKET", orders[0].Get("type"))
	assert.Equal(t, "SHORT", orders[0].Get("positionSide"))
	assert.Equal(t, "12.5", orders[0].Get("quantity"))
	assert.NotContains(t, orders[0], "reduceOnly")
}

func TestClosePositionFlatSendsNoOrder(t *testing.T) {
	rec := &orderRecorder{risk: `[
		{"symbol":"SOLUSDT","positionAmt":"0","entryPrice":"0","positionSide":"LONG","marginType":"cross","leverage":"10"},
		{"symbol":"SOLUSDT","positionAmt":"0","entryPrice":"0","positionSide":"SHORT","marginType":"cross","leverage":"10"}
	]`}
	c := newTestClient(t, rec.handle(t))

	res := c.ClosePosition(context.Background(), "SOL-USDT-SWAP", domain.SideLong, domain.MarginCross)
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.Equal(t, "-4044", res.Code)
	assert.Empty(t, rec.recorded())
}

func TestClosePositionOneWayUsesReduceOnly(t *testing.T) {
	rec := &orderRecorder{risk: `[
		{"symbol":"SOLUSDT","positionAmt":"-3","entryPrice":"99","positionSide":"BOTH","marginType":"isolated","leverage":"5"}
	]`}
	c := newTestClient(t, rec.handle(t))

	res := c.ClosePosition(context.Background(), "SOL-USDT-SWAP", domain.SideShort, domain.MarginIsolated)
	require.True(t, res.OK(), res.String())

	orders := rec.recorded()
	require.Len(t, orders, 1)
	assert.Equal(t, "BUY", orders[0].Get("side"))
	assert.Equal(t, "3", orders[0].Get("quantity"))
	assert.Equal(t, "true", orders[0].Get("reduceOnly"))
	assert.NotContains(t, orders[0], "positionSide")
}

func TestClosePositionRejectedRiskQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "positionRisk")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	})

	res := c.ClosePosition(context.Background(), "NOPE-USDT-SWAP", domain.SideLong, domain.MarginCross)
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.Equal(t, "-1121", res.Code)
}

func TestPlaceMarketOrderParameters(t *testing.T) {
	tests := []struct {
		name         string
		req          domain.OrderRequest
		positionSide string
		reduceOnly   string
	}{
		{
			name: "hedge open drops reduceOnly",
			req: domain.OrderRequest{Instrument: "SOL-USDT-SWAP", Side: domain.Sell, PositionSide: domain.SideShort,
				Quantity: decimal.RequireFromString("2"), ReduceOnly: true, ClientOrderID: "flip1"},
			positionSide: "SHORT",
		},
		{
			name: "one-way reduce",
			req: domain.OrderRequest{Instrument: "SOL-USDT-SWAP", Side: domain.Buy,
				Quantity: decimal.RequireFromString("2"), ReduceOnly: true},
			reduceOnly: "true",
		},
		{
			name: "one-way open",
			req: domain.OrderRequest{Instrument: "SOL-USDT-SWAP", Side: domain.Buy,
				Quantity: decimal.RequireFromString("2")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &orderRecorder{}
			c := newTestClient(t, rec.handle(t))

			res := c.PlaceMarketOrder(context.Background(), tc.req)
			require.True(t, res.OK(), res.String())

			orders := rec.recorded()
			require.Len(t, orders, 1)
			assert.Equal(t, "SOLUSDT", orders[0].Get("symbol"))
			assert.Equal(t, strings.ToUpper(string(tc.req.Side)), orders[0].Get("side"))
			assert.Equal(t, "2", orders[0].Get("quantity"))
			assert.Equal(t, tc.positionSide, orders[0].Get("positionSide"))
			assert.Equal(t, tc.reduceOnly, orders[0].Get("reduceOnly"))
			if tc.req.ClientOrderID != "" {
				assert.Equal(t, tc.req.ClientOrderID, orders[0].Get("newClientOrderId"))
			}
		})
	}
}

func TestPlaceMarketOrderRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-2019,"msg":"Margin is insufficient."}`)
	})

	res := c.PlaceMarketOrder(context.Background(), domain.OrderRequest{
		Instrument: "SOL-USDT-SWAP", Side: domain.Buy, PositionSide: domain.SideLong, Quantity: decimal.RequireFromString("1"),
	})
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.Equal(t, "-2019", res.Code)
}

func TestInstrumentKeyMatchesSpellings(t *testing.T) {
	c := &Client{logger: logger.NewNop()}
	assert.Equal(t, c.InstrumentKey("SOL-USDT-SWAP"), c.InstrumentKey("solusdt"))
	assert.Equal(t, "SOLUSDT", c.InstrumentKey("sol-usdt"))
}
