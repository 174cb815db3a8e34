// Package account establishes the account settings a flip relies on.
package account

import (
	"context"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

// Actions reported in ConfigResult.
const (
	ActionSetPositionMode = "set_position_mode"
	ActionSetLeverage     = "set_leverage"
)

// ConfigResult records one configuration step. Failures are reported, never fatal.
type ConfigResult struct {
	Action       string              `json:"action"`
	Skipped      bool                `json:"skipped"`
	PreviousMode domain.PositionMode `json:"previousMode,omitempty"`
	Leverage     int                 `json:"leverage,omitempty"`
	Result       *ports.Result       `json:"result,omitempty"`
}

// OK reports whether the setting is known to be in place.
func (c ConfigResult) OK() bool {
	return c.Skipped || (c.Result != nil && c.Result.OK())
}

// Configurator puts the account into dual-direction mode and sets leverage.
type Configurator struct {
	exchange ports.Exchange
	logger   ports.Logger
}

// NewConfigurator creates a configurator over the exchange.
func NewConfigurator(exchange ports.Exchange, logger ports.Logger) *Configurator {
	return &Configurator{exchange: exchange, logger: logger}
}

// EnsurePositionMode switches to dual-direction mode unless the account is
// already there. When the mode cannot be read the switch is still attempted;
// the exchange treats a redundant switch as a no-op or a harmless rejection.
func (c *Configurator) EnsurePositionMode(ctx context.Context) ConfigResult {
	mode, readRes := c.exchange.GetPositionMode(ctx)
	if readRes.OK() && mode == domain.PositionModeLongShort {
		c.logger.Debug(ctx, "Position mode already dual-direction", map[string]interface{}{"mode": mode})
		return ConfigResult{Action: ActionSetPositionMode, Skipped: true, PreviousMode: mode}
	}
	if !readRes.OK() {
		c.logger.Warn(ctx, "Position mode unreadable, switching anyway", map[string]interface{}{"result": readRes.String()})
	}

	res := c.exchange.SetPositionMode(ctx, domain.PositionModeLongShort)
	fields := map[string]interface{}{"previousMode": mode, "result": res.String()}
	if res.OK() {
		c.logger.Info(ctx, "Position mode set to dual-direction", fields)
	} else {
		c.logger.Warn(ctx, "Failed to set position mode", fields)
	}
	return ConfigResult{Action: ActionSetPositionMode, PreviousMode: mode, Result: res.Ptr()}
}

// SetLeverage always issues the leverage request; the exchange accepts
// repeats of the current value.
func (c *Configurator) SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) ConfigResult {
	res := c.exchange.SetLeverage(ctx, instrument, leverage, marginMode)
	fields := map[string]interface{}{
		"instrument": instrument,
		"leverage":   leverage,
		"marginMode": marginMode,
		"result":     res.String(),
	}
	if res.OK() {
		c.logger.Info(ctx, "Leverage set", fields)
	} else {
		// Continue with current leverage instead of failing
		c.logger.Warn(ctx, "Failed to set leverage, continuing", fields)
	}
	return ConfigResult{Action: ActionSetLeverage, Leverage: leverage, Result: res.Ptr()}
}
