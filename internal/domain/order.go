package domain

import "github.com/shopspring/decimal"

// OrderRequest describes a market order on a derivatives instrument.
type OrderRequest struct {
	Instrument    string
	Side          OrderSide
	PositionSide  PositionSide
	Quantity      decimal.Decimal
	MarginMode    MarginMode
	ReduceOnly    bool
	ClientOrderID string
}
