package ports

import "time"

// Metrics receives counters and timings from the flip pipeline.
type Metrics interface {
	// ObserveExchangeCall records one exchange call and how it ended.
	ObserveExchangeCall(exchange, op string, status Status, elapsed time.Duration)
	// ObserveFlip records the terminal state of one orchestration run.
	ObserveFlip(direction, result string, elapsed time.Duration)
	// ObserveCloseFallback counts reduce-only fallbacks after a failed whole close.
	ObserveCloseFallback(exchange string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveExchangeCall(string, string, Status, time.Duration) {}
func (NopMetrics) ObserveFlip(string, string, time.Duration)                 {}
func (NopMetrics) ObserveCloseFallback(string)                               {}
