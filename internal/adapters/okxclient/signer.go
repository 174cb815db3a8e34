package okxclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Sign returns base64(HMAC-SHA256(secret, ts+METHOD+path+body)), the
// OK-ACCESS-SIGN header value.
func Sign(secret, ts, method, path, body string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts + strings.ToUpper(method) + path + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// stamper issues request timestamps that never repeat and never move
// backwards, even if the wall clock does.
type stamper struct {
	mu   sync.Mutex
	last int64 // unix millis of the previous stamp
	now  func() time.Time
}

func newStamper(now func() time.Time) *stamper {
	if now == nil {
		now = time.Now
	}
	return &stamper{now: now}
}

// Next returns the next ISO-8601 UTC millisecond timestamp.
func (s *stamper) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return time.UnixMilli(ms).UTC().Format(timestampLayout)
}
