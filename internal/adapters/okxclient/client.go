package okxclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"signalFlipBot/internal/ports"
)

const (
	baseURLProduction = "https://www.okx.com"
	codeOK            = "0"
)

var _ ports.Exchange = (*Client)(nil)

// Client implements ports.Exchange against the OKX v5 REST API.
type Client struct {
	http       *resty.Client
	apiKey     string
	secretKey  string
	passphrase string
	simulated  bool
	stamps     *stamper
	logger     ports.Logger
}

// Config holds configuration specific to the OKX client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	Passphrase string
	BaseURL    string        // defaults to https://www.okx.com
	Simulated  bool          // demo trading environment
	Timeout    time.Duration // bound for every call, defaults to 15s
	Logger     ports.Logger
	// Now overrides the clock used for request timestamps (tests).
	Now func() time.Time
}

// New creates a new OKX client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for OKX client: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" || cfg.Passphrase == "" {
		return nil, fmt.Errorf("OKX credentials are incomplete: %w", ports.ErrInvalidAPIKeys)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = baseURLProduction
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0)

	cfg.Logger.Info(context.Background(), "OKX client configured", map[string]interface{}{
		"baseURL":   baseURL,
		"simulated": cfg.Simulated,
		"timeout":   timeout.String(),
	})

	return &Client{
		http:       rc,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		passphrase: cfg.Passphrase,
		simulated:  cfg.Simulated,
		stamps:     newStamper(cfg.Now),
		logger:     cfg.Logger,
	}, nil
}

// Name identifies the venue.
func (c *Client) Name() string { return "okx" }

// InstrumentKey returns the instrument id unchanged; OKX ids are already canonical.
func (c *Client) InstrumentKey(instrument string) string { return instrument }

// Call issues one signed request and normalizes whatever comes back. The
// signed path must include the query string, so GET parameters are passed
// inside path rather than as a separate map.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}) ports.Result {
	method = strings.ToUpper(method)

	payload := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return ports.TransportFailure("", fmt.Sprintf("encode request body: %v", err))
		}
		payload = string(raw)
	}

	ts := c.stamps.Next()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("OK-ACCESS-KEY", c.apiKey).
		SetHeader("OK-ACCESS-SIGN", Sign(c.secretKey, ts, method, path, payload)).
		SetHeader("OK-ACCESS-TIMESTAMP", ts).
		SetHeader("OK-ACCESS-PASSPHRASE", c.passphrase).
		SetHeader("Content-Type", "application/json")
	if c.simulated {
		req.SetHeader("x-simulated-trading", "1")
	}
	if payload != "" {
		req.SetBody([]byte(payload))
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn(ctx, "OKX request failed", map[string]interface{}{"method": method, "path": path, "error": err.Error()})
		return ports.TransportFailure("", err.Error())
	}
	return normalize(resp.StatusCode(), resp.Body())
}

// normalize folds an HTTP reply into the tagged result. Anything that is not
// an OKX envelope becomes a transport failure carrying the HTTP status.
func normalize(status int, body []byte) ports.Result {
	if !gjson.ValidBytes(body) {
		return ports.TransportFailure(strconv.Itoa(status), strings.TrimSpace(string(body)))
	}
	env := gjson.ParseBytes(body)
	code := env.Get("code")
	if !env.IsObject() || !code.Exists() {
		msg := strings.TrimSpace(string(body))
		if status == http.StatusOK {
			msg = "unexpected response shape: " + msg
		}
		return ports.TransportFailure(strconv.Itoa(status), msg)
	}
	data := json.RawMessage(env.Get("data").Raw)
	if code.String() != codeOK {
		msg := env.Get("msg").String()
		// order endpoints put the useful reason on the first item
		if sMsg := env.Get("data.0.sMsg").String(); sMsg != "" && msg == "" {
			msg = sMsg
		}
		return ports.Rejected(code.String(), msg, data)
	}
	return ports.Success(codeOK, data)
}

// get and post are thin helpers so capability methods read like the API table.
func (c *Client) get(ctx context.Context, path string) ports.Result {
	return c.Call(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ports.Result {
	return c.Call(ctx, http.MethodPost, path, body)
}
