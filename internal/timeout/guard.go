package timeout

import "time"

// DefaultDuration is the wait budget for a single outstanding request.
const DefaultDuration = 5 * time.Second

// Guard tracks whether one outstanding request has exceeded its wait budget.
// It is not safe for concurrent use; the UI loop owns it.
type Guard struct {
	duration time.Duration
	start    time.Time
	now      func() time.Time
}

// New returns a guard that has already passed.
func New(d time.Duration) *Guard {
	return NewWithClock(d, time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(d time.Duration, now func() time.Time) *Guard {
	if d <= 0 {
		d = DefaultDuration
	}
	g := &Guard{duration: d, now: now}
	g.Reset()
	return g
}

// Start records the current instant as the beginning of the wait.
func (g *Guard) Start() {
	g.start = g.now()
}

// Reset makes Passed true immediately.
func (g *Guard) Reset() {
	g.start = g.now().Add(-g.duration)
}

// Passed reports whether the wait budget has been used up since Start.
func (g *Guard) Passed() bool {
	// Inclusive, so a guard whose clock has not moved since Reset has passed.
	return g.now().Sub(g.start) >= g.duration
}

// Remaining is the unspent part of the budget, never negative.
func (g *Guard) Remaining() time.Duration {
	left := g.duration - g.now().Sub(g.start)
	if left < 0 {
		return 0
	}
	return left
}

// Duration returns the configured budget.
func (g *Guard) Duration() time.Duration {
	return g.duration
}
