// Package diag provides rate-limited debug-level tracing for the extractor
// and packetizer, so a live multicast feed run at a high debug level cannot
// itself become a performance problem.
package diag

import (
	"log"

	"golang.org/x/time/rate"
)

// Tracer gates log.Printf calls behind both a configured debug level and a
// token-bucket rate limiter.
type Tracer struct {
	prefix string
	level  int
	lim    *rate.Limiter
}

// NewTracer builds a Tracer that only emits messages at or below level, at
// an average of at most perSecond messages per second with bursts of up to
// burst messages, so a live feed cannot spam the log while the first burst
// of diagnostics at startup still gets through.
func NewTracer(prefix string, level int, perSecond int, burst int) *Tracer {
	if level > 5 {
		level = 5
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Tracer{
		prefix: prefix,
		level:  level,
		lim:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Enabled reports whether messages at the given level would be traced at
// all, letting callers skip building an expensive format argument list.
func (t *Tracer) Enabled(level int) bool {
	return t != nil && level <= t.level
}

// Tracef logs a formatted message if level is within the configured debug
// level and the rate limiter currently has a token available.
func (t *Tracer) Tracef(level int, format string, args ...any) {
	if !t.Enabled(level) {
		return
	}
	if !t.lim.Allow() {
		return
	}
	log.Printf(t.prefix+format, args...)
}
