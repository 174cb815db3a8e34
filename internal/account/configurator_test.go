package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/exchangetest"
	"signalFlipBot/internal/ports"
)

func TestEnsurePositionModeIsIdempotent(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.Mode = domain.PositionModeNet
	c := NewConfigurator(ex, logger.NewNop())
	ctx := context.Background()

	first := c.EnsurePositionMode(ctx)
	assert.False(t, first.Skipped)
	assert.Equal(t, domain.PositionModeNet, first.PreviousMode)
	require.NotNil(t, first.Result)
	assert.True(t, first.OK())

	second := c.EnsurePositionMode(ctx)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Result)
	assert.True(t, second.OK())

	assert.Equal(t, 1, ex.Count(exchangetest.OpSetPositionMode), "no mutation once in dual-direction mode")
	assert.Equal(t, 2, ex.Count(exchangetest.OpGetPositionMode))
}

func TestEnsurePositionModeUnreadable(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.ModeResult = ports.TransportFailure("", "timeout")
	c := NewConfigurator(ex, logger.NewNop())

	got := c.EnsurePositionMode(context.Background())
	assert.False(t, got.Skipped)
	assert.Equal(t, domain.PositionModeUnknown, got.PreviousMode)
	assert.Equal(t, 1, ex.Count(exchangetest.OpSetPositionMode))
}

func TestEnsurePositionModeRejected(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.Mode = domain.PositionModeNet
	ex.SetModeResult = ports.Rejected("59000", "Settings failed. Close any open positions or pending orders.", nil)
	c := NewConfigurator(ex, logger.NewNop())

	got := c.EnsurePositionMode(context.Background())
	assert.False(t, got.OK())
	assert.Equal(t, "59000", got.Result.Code)
}

func TestSetLeverageFailureIsReported(t *testing.T) {
	ex := exchangetest.New("1000", "100", "0.1")
	ex.LeverageResult = ports.Rejected("59102", "Leverage exceeds the maximum leverage", nil)
	c := NewConfigurator(ex, logger.NewNop())

	got := c.SetLeverage(context.Background(), "SOL-USDT-SWAP", 200, domain.MarginCross)
	assert.Equal(t, ActionSetLeverage, got.Action)
	assert.Equal(t, 200, got.Leverage)
	assert.False(t, got.OK())
	assert.Equal(t, []int{200}, ex.LeverageSets)
}
