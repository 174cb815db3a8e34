package okxclient

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

const (
	pathBalance     = "/api/v5/account/balance"
	pathTicker      = "/api/v5/market/ticker"
	pathInstruments = "/api/v5/public/instruments"
)

// GetBalances lists available equity from the first account detail block.
// availEq is preferred; accounts without it (simple mode) report availBal.
func (c *Client) GetBalances(ctx context.Context, currency string) ([]domain.Balance, ports.Result) {
	path := pathBalance
	if currency != "" {
		path += "?" + url.Values{"ccy": {currency}}.Encode()
	}
	res := c.get(ctx, path)
	if !res.OK() {
		return nil, res
	}
	var out []domain.Balance
	gjson.GetBytes(res.Data, "0.details").ForEach(func(_, d gjson.Result) bool {
		avail := d.Get("availEq").String()
		if avail == "" {
			avail = d.Get("availBal").String()
		}
		out = append(out, domain.Balance{
			Currency:  d.Get("ccy").String(),
			Available: parseDecimal(avail),
		})
		return true
	})
	return out, res
}

// GetTicker returns the last traded price, nil if the exchange returned no rows.
func (c *Client) GetTicker(ctx context.Context, instrument string) (*domain.Ticker, ports.Result) {
	res := c.get(ctx, pathTicker+"?"+url.Values{"instId": {instrument}}.Encode())
	if !res.OK() {
		return nil, res
	}
	row := gjson.GetBytes(res.Data, "0")
	if !row.Exists() {
		return nil, res
	}
	return &domain.Ticker{
		Instrument: row.Get("instId").String(),
		Last:       parseDecimal(row.Get("last").String()),
	}, res
}

// GetInstrument returns lot size metadata, nil if the instrument is not listed.
func (c *Client) GetInstrument(ctx context.Context, instrument string) (*domain.Instrument, ports.Result) {
	q := url.Values{"instType": {instType(instrument)}, "instId": {instrument}}
	res := c.get(ctx, pathInstruments+"?"+q.Encode())
	if !res.OK() {
		return nil, res
	}
	var found *domain.Instrument
	gjson.ParseBytes(res.Data).ForEach(func(_, it gjson.Result) bool {
		if it.Get("instId").String() != instrument {
			return true
		}
		found = &domain.Instrument{
			ID:      instrument,
			LotSize: parseDecimal(it.Get("lotSz").String()),
			MinSize: parseDecimal(it.Get("minSz").String()),
		}
		return false
	})
	return found, res
}

// instType infers the OKX instrument family from the instrument id:
// BTC-USDT-SWAP is a perpetual, BTC-USDT-250328 a dated future.
func instType(instrument string) string {
	parts := strings.Split(instrument, "-")
	if len(parts) == 3 {
		if parts[2] == "SWAP" {
			return "SWAP"
		}
		if isDigits(parts[2]) {
			return "FUTURES"
		}
	}
	return "SWAP"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseDecimal treats empty or malformed numeric strings as zero, which is
// how OKX reports absent values.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
