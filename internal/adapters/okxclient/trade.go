package okxclient

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

const (
	pathPositions     = "/api/v5/account/positions"
	pathClosePosition = "/api/v5/trade/close-position"
	pathOrder         = "/api/v5/trade/order"
)

type closePositionReq struct {
	InstID  string `json:"instId"`
	PosSide string `json:"posSide"`
	MgnMode string `json:"mgnMode"`
}

type orderReq struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	Side       string `json:"side"`
	OrdType    string `json:"ordType"`
	PosSide    string `json:"posSide"`
	Sz         string `json:"sz"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
	ClOrdID    string `json:"clOrdId,omitempty"`
}

// GetPositions lists open positions for an instrument. Net-mode records
// carry a signed size and are mapped onto the long/short side they represent.
// Flat records are skipped.
func (c *Client) GetPositions(ctx context.Context, instrument string) ([]domain.Position, ports.Result) {
	path := pathPositions
	if instrument != "" {
		path += "?" + url.Values{"instId": {instrument}}.Encode()
	}
	res := c.get(ctx, path)
	if !res.OK() {
		return nil, res
	}
	var out []domain.Position
	gjson.ParseBytes(res.Data).ForEach(func(_, p gjson.Result) bool {
		qty := parseDecimal(p.Get("pos").String())
		if qty.IsZero() {
			return true
		}
		side := domain.PositionSide(p.Get("posSide").String())
		if side != domain.SideLong && side != domain.SideShort {
			if qty.IsNegative() {
				side = domain.SideShort
			} else {
				side = domain.SideLong
			}
		}
		out = append(out, domain.Position{
			Instrument: p.Get("instId").String(),
			Side:       side,
			Quantity:   qty.Abs(),
			AvgPrice:   parseDecimal(p.Get("avgPx").String()),
			Leverage:   p.Get("lever").String(),
			MarginMode: domain.MarginMode(p.Get("mgnMode").String()),
		})
		return true
	})
	return out, res
}

// ClosePosition closes everything on one side at market via the dedicated
// close-position endpoint.
func (c *Client) ClosePosition(ctx context.Context, instrument string, side domain.PositionSide, marginMode domain.MarginMode) ports.Result {
	return c.post(ctx, pathClosePosition, closePositionReq{
		InstID:  instrument,
		PosSide: string(side),
		MgnMode: string(marginMode),
	})
}

// PlaceMarketOrder submits a market order in long/short mode.
func (c *Client) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) ports.Result {
	return c.post(ctx, pathOrder, orderReq{
		InstID:     req.Instrument,
		TdMode:     string(req.MarginMode),
		Side:       string(req.Side),
		OrdType:    "market",
		PosSide:    string(req.PositionSide),
		Sz:         req.Quantity.String(),
		ReduceOnly: req.ReduceOnly,
		ClOrdID:    req.ClientOrderID,
	})
}
