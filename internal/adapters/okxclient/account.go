package okxclient

import (
	"context"
	"strconv"

	"github.com/tidwall/gjson"

	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

const (
	pathAccountConfig   = "/api/v5/account/config"
	pathSetPositionMode = "/api/v5/account/set-position-mode"
	pathSetLeverage     = "/api/v5/account/set-leverage"
)

type setPositionModeReq struct {
	PosMode string `json:"posMode"`
}

type setLeverageReq struct {
	InstID  string `json:"instId"`
	Lever   string `json:"lever"`
	MgnMode string `json:"mgnMode"`
	PosSide string `json:"posSide,omitempty"`
}

// GetPositionMode reads posMode from the account configuration.
func (c *Client) GetPositionMode(ctx context.Context) (domain.PositionMode, ports.Result) {
	res := c.get(ctx, pathAccountConfig)
	if !res.OK() {
		return domain.PositionModeUnknown, res
	}
	switch mode := gjson.GetBytes(res.Data, "0.posMode").String(); mode {
	case string(domain.PositionModeLongShort):
		return domain.PositionModeLongShort, res
	case string(domain.PositionModeNet):
		return domain.PositionModeNet, res
	default:
		return domain.PositionModeUnknown, res
	}
}

// SetPositionMode switches between long_short_mode and net_mode.
func (c *Client) SetPositionMode(ctx context.Context, mode domain.PositionMode) ports.Result {
	return c.post(ctx, pathSetPositionMode, setPositionModeReq{PosMode: string(mode)})
}

// SetLeverage sets leverage for an instrument. Cross margin takes one call;
// isolated margin in long/short mode is set per position side, and the first
// rejected side is reported.
func (c *Client) SetLeverage(ctx context.Context, instrument string, leverage int, marginMode domain.MarginMode) ports.Result {
	req := setLeverageReq{
		InstID:  instrument,
		Lever:   strconv.Itoa(leverage),
		MgnMode: string(marginMode),
	}
	if marginMode != domain.MarginIsolated {
		return c.post(ctx, pathSetLeverage, req)
	}
	var res ports.Result
	for _, side := range []domain.PositionSide{domain.SideLong, domain.SideShort} {
		req.PosSide = string(side)
		res = c.post(ctx, pathSetLeverage, req)
		if !res.OK() {
			return res
		}
	}
	return res
}
