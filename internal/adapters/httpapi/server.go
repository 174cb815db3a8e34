// Package httpapi is the webhook front door: it turns alert payloads into
// flip signals and reports the outcome as JSON.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"signalFlipBot/internal/app"
	"signalFlipBot/internal/domain"
	"signalFlipBot/internal/ports"
)

// TokenHeader carries the shared webhook secret when the body does not.
const TokenHeader = "X-Webhook-Token"

// Flipper is the part of app.FlipService the server drives.
type Flipper interface {
	Flip(ctx context.Context, sig domain.Signal) *app.FlipOutcome
	Positions(ctx context.Context, instrument string) ([]domain.Position, ports.Result)
}

// Defaults fill fields the alert leaves out.
type Defaults struct {
	Symbol      string
	Percent     decimal.Decimal
	Leverage    int
	MaxLeverage int
}

// Config describes the server's dependencies.
type Config struct {
	Addr         string
	Flipper      Flipper
	Metrics      http.Handler // served on /metrics when set
	Logger       ports.Logger
	Defaults     Defaults
	WebhookToken string // empty disables the check
}

// Server serves the webhook and the read-only endpoints.
type Server struct {
	cfg    Config
	router *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Flipper == nil || cfg.Logger == nil {
		return nil, errors.New("http server requires a flipper and a logger")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	s := &Server{cfg: cfg, router: router}
	router.Use(gin.CustomRecovery(s.recover), s.requestLogger())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "signal flip bot is running")
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/positions", s.handlePositions)
	router.POST("/webhook", s.handleWebhook)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled or the listener fails. In-flight flips
// get the shutdown grace period to finish.
func (s *Server) Start(ctx context.Context, grace time.Duration) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.cfg.Logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.cfg.Addr})

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": fmt.Sprintf("invalid JSON body: %v", err)})
		return
	}

	if s.cfg.WebhookToken != "" {
		token := req.Token
		if token == "" {
			token = c.GetHeader(TokenHeader)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.WebhookToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid webhook token"})
			return
		}
	}
	req.Token = ""

	sig, err := s.signalFrom(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error(), "data": req})
		return
	}

	out := s.cfg.Flipper.Flip(c.Request.Context(), sig)
	c.JSON(http.StatusOK, out)
}

// signalFrom applies defaults and validates the payload.
func (s *Server) signalFrom(req webhookRequest) (domain.Signal, error) {
	dir, err := domain.ParseAction(req.Action)
	if err != nil {
		return domain.Signal{}, err
	}
	sig := domain.Signal{
		Direction:  dir,
		Instrument: strings.TrimSpace(req.Symbol),
		Percent:    s.cfg.Defaults.Percent,
		Leverage:   s.cfg.Defaults.Leverage,
	}
	if sig.Instrument == "" {
		sig.Instrument = s.cfg.Defaults.Symbol
	}
	if req.Percent.Valid {
		sig.Percent = req.Percent.Decimal
	}
	if req.Leverage.Set {
		sig.Leverage = req.Leverage.Value
	}
	if err := sig.Validate(s.cfg.Defaults.MaxLeverage); err != nil {
		return domain.Signal{}, err
	}
	return sig, nil
}

func (s *Server) handlePositions(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		symbol = s.cfg.Defaults.Symbol
	}
	current, res := s.cfg.Flipper.Positions(c.Request.Context(), symbol)
	if !res.OK() {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "symbol": symbol, "error": res.String(), "result": res})
		return
	}
	if current == nil {
		current = []domain.Position{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "symbol": symbol, "positions": current})
}

func (s *Server) recover(c *gin.Context, recovered any) {
	err := fmt.Errorf("panic: %v", recovered)
	s.cfg.Logger.Error(c.Request.Context(), err, "Request handler panicked", map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.cfg.Logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"query":    c.Request.URL.RawQuery,
			"status":   c.Writer.Status(),
			"clientIP": c.ClientIP(),
			"duration": time.Since(start).String(),
		})
	}
}
