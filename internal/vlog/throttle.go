package vlog

import (
	"math"
	"sync"
	"time"
)

// Throttler rate-limits a repeated log call so that a condition hit
// thousands of times per second doesn't flood output, while still
// surfacing the first few occurrences and an occasional reminder after
// that. Ported from original_source/vrs/helpers/Throttler.h/.cpp.
//
// Each distinct (callSite, object) pair is tracked independently: a
// nil object key throttles that call site globally, while a non-nil
// key (e.g. a stream id or file path) throttles per-object so that one
// noisy file doesn't suppress reports for another.
type Throttler struct {
	everyInstanceLimit int64
	maxDelay           time.Duration

	mu    sync.Mutex
	stats map[throttleKey]*throttleStats
}

type throttleKey struct {
	callSite string
	object   any
}

type throttleStats struct {
	lastReportedTime   time.Time
	requestCounter     int64
	skipSinceLastReport int64
}

// NewThrottler creates a Throttler. everyInstanceLimit is how many
// times a call site/object pair reports unconditionally before
// throttling kicks in; maxDelay bounds how long throttling can
// suppress all reports for a pair regardless of frequency.
func NewThrottler(everyInstanceLimit int64, maxDelay time.Duration) *Throttler {
	if everyInstanceLimit <= 0 {
		everyInstanceLimit = 20
	}
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	return &Throttler{everyInstanceLimit: everyInstanceLimit, maxDelay: maxDelay, stats: map[throttleKey]*throttleStats{}}
}

// DefaultThrottler is shared by callers that don't need per-object
// throttling context, mirroring the teacher's package-level
// "getThrottler()" singleton convention.
var DefaultThrottler = NewThrottler(20, 10*time.Second)

// Report reports whether the caller should actually emit its log
// message this time, for the call site identified by callSite and the
// (optional) object this condition relates to. Pass a nil object to
// throttle the call site globally.
func (t *Throttler) Report(callSite string, object any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := throttleKey{callSite: callSite, object: object}
	stats, ok := t.stats[key]
	if !ok {
		stats = &throttleStats{}
		t.stats[key] = stats
	}

	now := time.Now()
	stats.requestCounter++
	doIt := true
	if stats.requestCounter > t.everyInstanceLimit && now.Sub(stats.lastReportedTime) < t.maxDelay {
		doIt = (stats.skipSinceLastReport+1)%reportFrequency(stats.requestCounter) == 0
	}
	if doIt {
		stats.lastReportedTime = now
		stats.skipSinceLastReport = 0
	} else {
		stats.skipSinceLastReport++
	}
	return doIt
}

// reportFrequency maps a request counter to a reporting stride: 0-10 -> 1,
// 11-100 -> 10, 101-1000 -> 100, and so on, matching Throttler::reportFrequency.
func reportFrequency(counter int64) int64 {
	power := int64(math.Log10(float64(counter - 1)))
	res := int64(1)
	for p := int64(1); p <= power; p++ {
		res *= 10
	}
	return res
}
