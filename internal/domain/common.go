package domain

import (
	"fmt"
	"strings"
)

// Direction is the exposure a signal asks for.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Opposite returns the direction that must be closed before this one is opened.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// PositionSide returns the position record the direction maps to in dual-direction mode.
func (d Direction) PositionSide() PositionSide {
	return PositionSide(d)
}

// OpenSide is the trading side that increases exposure in this direction.
func (d Direction) OpenSide() OrderSide {
	if d == Long {
		return Buy
	}
	return Sell
}

// PositionSide identifies one of the two independent position records an
// instrument can carry in dual-direction mode.
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// CloseSide is the trading side that reduces a position on this side.
func (s PositionSide) CloseSide() OrderSide {
	if s == SideLong {
		return Sell
	}
	return Buy
}

// OrderSide represents the side of an order (buy or sell).
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// PositionMode is the account-wide position bookkeeping mode.
type PositionMode string

const (
	// PositionModeLongShort keeps long and short positions on the same
	// instrument as separate records.
	PositionModeLongShort PositionMode = "long_short_mode"
	PositionModeNet       PositionMode = "net_mode"
	PositionModeUnknown   PositionMode = ""
)

// MarginMode is the margin pool a position draws from.
type MarginMode string

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)

// ParseMarginMode accepts "cross" or "isolated" in any case.
func ParseMarginMode(s string) (MarginMode, error) {
	switch MarginMode(strings.ToLower(strings.TrimSpace(s))) {
	case MarginCross:
		return MarginCross, nil
	case MarginIsolated:
		return MarginIsolated, nil
	default:
		return "", fmt.Errorf("unknown margin mode %q", s)
	}
}
