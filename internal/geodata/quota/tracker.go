// Package quota tracks per-source request budgets across four rolling
// windows: minute, hour, day, and calendar month.
package quota

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"urbanclear/internal/geodata/config"
	"urbanclear/internal/geodata/models"
)

// state holds the live counters of one source. Counters reset lazily: a
// window is zeroed the first time it is inspected after elapsing, so no
// sweep goroutine is needed.
type state struct {
	minute    int
	hour      int
	day       int
	month     int
	lastReset time.Time
}

// Tracker enforces per-source rolling budgets. All methods are safe for
// concurrent use; check-then-record sequences are atomic per source.
//
// Month windows compare calendar month numbers only. A counter idle across
// a full year lands on the same month number and is not reset until the
// number changes; the same applies to gaps longer than eleven months. This
// matches the provider-budget semantics the service has always had — do not
// change it without deciding what a month window means across year
// boundaries.
type Tracker struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	registry *config.Registry
	states   map[string]*state
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects a clock, letting tests advance time deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New builds a tracker for every source in the registry.
func New(registry *config.Registry, opts ...Option) *Tracker {
	t := &Tracker{
		clock:    clockwork.NewRealClock(),
		registry: registry,
		states:   make(map[string]*state),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, src := range registry.All() {
		t.states[src.Name] = &state{lastReset: t.clock.Now()}
	}
	return t
}

// CanMakeRequest reports whether all four counters of the source are
// strictly below budget. Unknown sources are never allowed.
func (t *Tracker) CanMakeRequest(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	src := t.registry.Get(source)
	st := t.states[source]
	if src == nil || st == nil {
		return false
	}

	t.resetElapsed(st)
	limits := src.RateLimits
	return st.minute < limits.RequestsPerMinute &&
		st.hour < limits.RequestsPerHour &&
		st.day < limits.RequestsPerDay &&
		st.month < limits.RequestsPerMonth
}

// RecordRequest counts one attempt against every window of the source and
// stamps the reset reference time. Attempts are recorded whether the call
// ultimately succeeds or fails.
func (t *Tracker) RecordRequest(source string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.states[source]
	if st == nil {
		return
	}
	st.minute++
	st.hour++
	st.day++
	st.month++
	st.lastReset = t.clock.Now()
}

// Remaining returns the remaining budget per window, clamped at zero.
func (t *Tracker) Remaining(source string) models.QuotaRemaining {
	t.mu.Lock()
	defer t.mu.Unlock()

	src := t.registry.Get(source)
	st := t.states[source]
	if src == nil || st == nil {
		return models.QuotaRemaining{}
	}

	t.resetElapsed(st)
	limits := src.RateLimits
	return models.QuotaRemaining{
		Minute: clamp(limits.RequestsPerMinute - st.minute),
		Hour:   clamp(limits.RequestsPerHour - st.hour),
		Day:    clamp(limits.RequestsPerDay - st.day),
		Month:  clamp(limits.RequestsPerMonth - st.month),
	}
}

// resetElapsed zeroes every counter whose window has elapsed since
// lastReset. Callers must hold the mutex.
func (t *Tracker) resetElapsed(st *state) {
	now := t.clock.Now()
	if now.Sub(st.lastReset) > time.Minute {
		st.minute = 0
	}
	if now.Sub(st.lastReset) > time.Hour {
		st.hour = 0
	}
	if now.Sub(st.lastReset) > 24*time.Hour {
		st.day = 0
	}
	if now.Month() != st.lastReset.Month() {
		st.month = 0
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
