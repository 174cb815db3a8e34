package risk

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/exchangetest"
	"signalFlipBot/internal/market"
	"signalFlipBot/internal/ports"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSizeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		in       SizeInput
		expected string
	}{
		{"round lots", SizeInput{Balance: d("1000"), Percent: d("50"), Leverage: 10, Price: d("100"), LotSize: d("0.1")}, "50"},
		{"floored to lot", SizeInput{Balance: d("333"), Percent: d("50"), Leverage: 10, Price: d("101"), LotSize: d("0.1")}, "16.4"},
		{"zero balance", SizeInput{Balance: d("0"), Percent: d("50"), Leverage: 10, Price: d("100"), LotSize: d("0.1")}, "0"},
		{"negative balance", SizeInput{Balance: d("-5"), Percent: d("50"), Leverage: 10, Price: d("100"), LotSize: d("0.1")}, "0"},
		{"zero price", SizeInput{Balance: d("1000"), Percent: d("50"), Leverage: 10, Price: d("0"), LotSize: d("0.1")}, "0"},
		{"zero lot", SizeInput{Balance: d("1000"), Percent: d("50"), Leverage: 10, Price: d("100"), LotSize: d("0")}, "0"},
		{"below one lot", SizeInput{Balance: d("1"), Percent: d("10"), Leverage: 1, Price: d("100"), LotSize: d("1")}, "0"},
		{"float-hostile lot", SizeInput{Balance: d("100"), Percent: d("100"), Leverage: 1, Price: d("1"), LotSize: d("0.1")}, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSize(tt.in)
			assert.True(t, got.Quantity.Equal(d(tt.expected)), "got %s, want %s", got.Quantity, tt.expected)
		})
	}
}

func TestComputeSizeMeta(t *testing.T) {
	got := ComputeSize(SizeInput{Balance: d("333"), Percent: d("50"), Leverage: 10, Price: d("101"), LotSize: d("0.1")})
	assert.True(t, got.Meta.Notional.Equal(d("1665")))
	assert.True(t, got.Meta.Steps.Equal(d("164")))
	assert.Equal(t, "16.485148514851485149", got.Meta.RawQuantity.String())

	zero := ComputeSize(SizeInput{Balance: d("0"), Percent: d("50"), Leverage: 10, Price: d("101"), LotSize: d("0.1")})
	assert.True(t, zero.IsZero())
	assert.True(t, zero.Meta.Price.Equal(d("101")), "meta is populated even when nothing can be opened")
}

// The quantity is always a whole number of lots and never worth more than the notional.
func TestComputeSizeFloorProperty(t *testing.T) {
	balances := []string{"0.5", "7", "99.99", "333", "1000", "123456.789"}
	prices := []string{"0.0001234", "0.5", "1", "101", "2500.75", "64000"}
	lots := []string{"0.001", "0.01", "0.1", "1", "10"}
	percents := []string{"1", "33.3", "50", "100"}
	leverages := []int{1, 3, 10, 125}

	for _, b := range balances {
		for _, p := range prices {
			for _, l := range lots {
				for _, pct := range percents {
					for _, lev := range leverages {
						in := SizeInput{Balance: d(b), Price: d(p), LotSize: d(l), Percent: d(pct), Leverage: lev}
						got := ComputeSize(in)

						require.False(t, got.Quantity.IsNegative())
						_, rem := got.Quantity.QuoRem(in.LotSize, 0)
						require.True(t, rem.IsZero(), "quantity %s is not a multiple of lot %s", got.Quantity, l)

						notional := in.Balance.Mul(in.Percent).Shift(-2).Mul(decimal.NewFromInt(int64(lev)))
						require.True(t, got.Quantity.Mul(in.Price).LessThanOrEqual(notional),
							"quantity %s at %s exceeds notional %s", got.Quantity, p, notional)
						require.True(t, got.Quantity.Add(in.LotSize).Mul(in.Price).GreaterThan(notional),
							"one more lot would still fit: quantity %s lot %s", got.Quantity, l)
					}
				}
			}
		}
	}
}

func TestSizerReadsLiveValues(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	s := NewSizer(market.NewReader(ex, decimal.Zero, logger.NewNop()), "USDT", logger.NewNop())

	got := s.Size(context.Background(), SizeRequest{Instrument: "SOL-USDT-SWAP", Percent: d("50"), Leverage: 10})
	assert.True(t, got.Quantity.Equal(d("50")))
	assert.Empty(t, got.Meta.Degraded)
	assert.Equal(t, []string{exchangetest.OpGetBalances, exchangetest.OpGetTicker, exchangetest.OpGetInstrument}, ex.CallLog())

	// balance changes between calls are picked up
	ex.Balances[0].Available = d("333")
	ex.Ticker.Last = d("101")
	got = s.Size(context.Background(), SizeRequest{Instrument: "SOL-USDT-SWAP", Percent: d("50"), Leverage: 10})
	assert.True(t, got.Quantity.Equal(d("16.4")))
}

func TestSizerDegradedReads(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.TickerResult = ports.TransportFailure("", "timeout")
	s := NewSizer(market.NewReader(ex, decimal.Zero, logger.NewNop()), "USDT", logger.NewNop())

	got := s.Size(context.Background(), SizeRequest{Instrument: "SOL-USDT-SWAP", Percent: d("50"), Leverage: 10})
	assert.True(t, got.IsZero())
	assert.Equal(t, []string{"price"}, got.Meta.Degraded)
}
