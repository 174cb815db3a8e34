package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAction is returned for any action outside the signal vocabulary.
var ErrInvalidAction = errors.New("invalid action, use long/buy or short/sell")

// ParseAction maps an inbound action word to a direction.
func ParseAction(action string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}

// Signal is a validated request to hold a position in one direction.
type Signal struct {
	Direction  Direction
	Instrument string
	Percent    decimal.Decimal // share of available balance, (0,100]
	Leverage   int
}

var hundred = decimal.NewFromInt(100)

// Validate checks the sizing inputs against their legal ranges.
func (s Signal) Validate(maxLeverage int) error {
	if s.Direction != Long && s.Direction != Short {
		return ErrInvalidAction
	}
	if strings.TrimSpace(s.Instrument) == "" {
		return errors.New("symbol must not be empty")
	}
	if !s.Percent.IsPositive() || s.Percent.GreaterThan(hundred) {
		return fmt.Errorf("percent must be in (0,100], got %s", s.Percent)
	}
	if s.Leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %d", s.Leverage)
	}
	if maxLeverage > 0 && s.Leverage > maxLeverage {
		return fmt.Errorf("leverage %d exceeds maximum allowed %d", s.Leverage, maxLeverage)
	}
	return nil
}
