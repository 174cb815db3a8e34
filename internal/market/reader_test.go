package market

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/exchangetest"
	"signalFlipBot/internal/ports"
)

func TestReaderHappyPath(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	r := NewReader(ex, decimal.Zero, logger.NewNop())
	ctx := context.Background()

	bal, res := r.Balance(ctx, "USDT")
	assert.True(t, res.OK())
	assert.Equal(t, "1000", bal.String())

	price, _ := r.Price(ctx, "SOL-USDT-SWAP")
	assert.Equal(t, "100", price.String())

	lot, _ := r.LotSize(ctx, "SOL-USDT-SWAP")
	assert.Equal(t, "0.1", lot.String())
}

func TestReaderDefaults(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.Balances = []domain.Balance{{Currency: "BTC", Available: decimal.NewFromInt(1)}}
	ex.Ticker = nil
	ex.Instrument = nil
	r := NewReader(ex, decimal.Zero, logger.NewNop())
	ctx := context.Background()

	bal, res := r.Balance(ctx, "USDT")
	assert.True(t, res.OK())
	assert.True(t, bal.IsZero())

	price, _ := r.Price(ctx, "SOL-USDT-SWAP")
	assert.True(t, price.IsZero())

	lot, _ := r.LotSize(ctx, "SOL-USDT-SWAP")
	assert.True(t, lot.Equal(DefaultLotSize))
}

func TestReaderFailedReadsDegrade(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0")
	ex.BalanceResult = ports.TransportFailure("", "timeout")
	ex.TickerResult = ports.Rejected("51001", "Instrument ID does not exist", nil)
	r := NewReader(ex, decimal.RequireFromString("0.5"), logger.NewNop())
	ctx := context.Background()

	bal, res := r.Balance(ctx, "USDT")
	assert.True(t, res.IsTransportFailure())
	assert.True(t, bal.IsZero())

	price, res := r.Price(ctx, "SOL-USDT-SWAP")
	assert.Equal(t, ports.StatusRejected, res.Status)
	assert.True(t, price.IsZero())

	lot, res := r.LotSize(ctx, "SOL-USDT-SWAP")
	assert.True(t, res.OK(), "lot size of zero is a successful read with an unusable value")
	assert.Equal(t, "0.5", lot.String())
}
