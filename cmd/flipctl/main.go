// Command flipctl runs single flip operations against the configured
// exchange from a shell, using the same .env configuration as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli"

	"signalFlipBot/config"
	"signalFlipBot/internal/adapters/logger"
	"signalFlipBot/internal/adapters/venue"
	"signalFlipBot/internal/app"
	"signalFlipBot/internal/domain"
)

const (
	NAME    = "flipctl"
	VERSION = "v1.0.0"
)

func main() {
	a := cli.NewApp()
	a.Name = NAME
	a.Version = VERSION
	a.Usage = "inspect and drive position flips by hand"
	a.Flags = []cli.Flag{
		cli.StringFlag{Name: "symbol, s", Usage: "instrument id (defaults to DEFAULT_SYMBOL)"},
	}
	a.Commands = []cli.Command{
		{
			Name:   "positions",
			Usage:  "list open positions on the instrument",
			Action: withService(positionsCmd),
		},
		{
			Name:  "size",
			Usage: "compute the quantity a flip would open now, without trading",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "percent, p", Usage: "share of available balance, (0,100]"},
				cli.IntFlag{Name: "leverage, l", Usage: "leverage multiplier"},
			},
			Action: withService(sizeCmd),
		},
		{
			Name:   "mode",
			Usage:  "switch the account to dual-direction position mode if needed",
			Action: withService(modeCmd),
		},
		{
			Name:      "flip",
			Usage:     "close the opposite side and open the requested one",
			ArgsUsage: "long|short|buy|sell",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "percent, p", Usage: "share of available balance, (0,100]"},
				cli.IntFlag{Name: "leverage, l", Usage: "leverage multiplier"},
			},
			Action: withService(flipCmd),
		},
	}

	if err := a.Run(os.Args); err != nil {
		log.Fatalf("%s: %v", NAME, err)
	}
}

type env struct {
	cfg    *config.Config
	svc    *app.FlipService
	out    io.Writer
	symbol string
}

func withService(fn func(ctx context.Context, c *cli.Context, e *env) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
		defer func() { _ = appLogger.Sync() }()

		exchange, err := venue.New(cfg, appLogger, nil)
		if err != nil {
			return err
		}
		svc, err := app.NewFlipService(cfg, appLogger, exchange, nil)
		if err != nil {
			return err
		}
		symbol := c.GlobalString("symbol")
		if symbol == "" {
			symbol = cfg.DefaultSymbol
		}
		return fn(context.Background(), c, &env{cfg: cfg, svc: svc, out: os.Stdout, symbol: symbol})
	}
}

func sizing(c *cli.Context, cfg *config.Config) (decimal.Decimal, int, error) {
	percent := cfg.DefaultPercent
	if p := c.String("percent"); p != "" {
		var err error
		if percent, err = decimal.NewFromString(p); err != nil {
			return decimal.Zero, 0, fmt.Errorf("invalid percent %q: %w", p, err)
		}
	}
	leverage := cfg.DefaultLeverage
	if c.IsSet("leverage") {
		leverage = c.Int("leverage")
	}
	return percent, leverage, nil
}

func positionsCmd(ctx context.Context, c *cli.Context, e *env) error {
	current, res := e.svc.Positions(ctx, e.symbol)
	if !res.OK() {
		return fmt.Errorf("position listing failed: %s", res)
	}
	return printJSON(e.out, map[string]interface{}{"symbol": e.symbol, "positions": current})
}

func sizeCmd(ctx context.Context, c *cli.Context, e *env) error {
	percent, leverage, err := sizing(c, e.cfg)
	if err != nil {
		return err
	}
	sig := domain.Signal{Direction: domain.Long, Instrument: e.symbol, Percent: percent, Leverage: leverage}
	if err := sig.Validate(e.cfg.MaxLeverage); err != nil {
		return err
	}
	return printJSON(e.out, e.svc.PreviewSize(ctx, e.symbol, percent, leverage))
}

func modeCmd(ctx context.Context, c *cli.Context, e *env) error {
	res := e.svc.EnsurePositionMode(ctx)
	if err := printJSON(e.out, res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("position mode not confirmed")
	}
	return nil
}

func flipCmd(ctx context.Context, c *cli.Context, e *env) error {
	dir, err := domain.ParseAction(c.Args().First())
	if err != nil {
		return err
	}
	percent, leverage, err := sizing(c, e.cfg)
	if err != nil {
		return err
	}
	out := e.svc.Flip(ctx, domain.Signal{Direction: dir, Instrument: e.symbol, Percent: percent, Leverage: leverage})
	if err := printJSON(e.out, out); err != nil {
		return err
	}
	if !out.OK {
		return cli.NewExitError(fmt.Sprintf("flip failed: %s", out.Reason), 2)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
