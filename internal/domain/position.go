package domain

import "github.com/shopspring/decimal"

// Position is one open position record as reported by the exchange.
// The exchange owns it; the bot only observes it and requests changes.
type Position struct {
	Instrument string          `json:"instrument"`
	Side       PositionSide    `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`  // contracts, never negative
	AvgPrice   decimal.Decimal `json:"avgPrice"`  // zero when the exchange does not report it
	Leverage   string          `json:"leverage"`  // as reported, may be empty
	MarginMode MarginMode      `json:"marginMode"`
}

// IsOpen reports whether the record carries any quantity.
func (p Position) IsOpen() bool {
	return p.Quantity.IsPositive()
}

// QuantityOn sums open quantity on the given side of an instrument.
func QuantityOn(positions []Position, instrument string, side PositionSide) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		if p.Instrument != instrument || p.Side != side || !p.IsOpen() {
			continue
		}
		total = total.Add(p.Quantity)
	}
	return total
}

// FilterInstrument returns the records that belong to one instrument.
func FilterInstrument(positions []Position, instrument string) []Position {
	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		if p.Instrument == instrument {
			out = append(out, p)
		}
	}
	return out
}
