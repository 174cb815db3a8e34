package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// webhookRequest is the inbound alert payload. Numbers may arrive as JSON
// numbers or strings; absent fields take the configured defaults.
type webhookRequest struct {
	Action   string              `json:"action"`
	Symbol   string              `json:"symbol"`
	Percent  decimal.NullDecimal `json:"percent"`
	Leverage numericInt          `json:"leverage"`
	Token    string              `json:"token,omitempty"`
}

// numericInt accepts 10, 10.0, "10" and null.
type numericInt struct {
	Value int
	Set   bool
}

func (n *numericInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = numericInt{}
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = numericInt{}
			return nil
		}
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("leverage must be a number: %w", err)
	}
	if val != math.Trunc(val) || val > math.MaxInt32 || val < math.MinInt32 {
		return fmt.Errorf("leverage must be a whole number, got %s", raw)
	}
	*n = numericInt{Value: int(val), Set: true}
	return nil
}

func (n numericInt) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}
