package domain

import "github.com/shopspring/decimal"

// Instrument is the contract metadata needed for sizing.
type Instrument struct {
	ID      string          `json:"id"`
	LotSize decimal.Decimal `json:"lotSize"`
	MinSize decimal.Decimal `json:"minSize"`
}

// Ticker is the latest traded price of an instrument.
type Ticker struct {
	Instrument string          `json:"instrument"`
	Last       decimal.Decimal `json:"last"`
}

// Balance is the available equity held in one settlement currency.
type Balance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
}
