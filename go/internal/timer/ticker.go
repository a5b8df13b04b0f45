package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the real-time length of one tick
const DefaultInterval = time.Second

// Ticker is the host-owned tick source for an Engine. Only one underlying
// ticker is live at a time; Restart replaces it.
type Ticker struct {
	clock    clockwork.Clock
	interval time.Duration
	active   clockwork.Ticker
}

// NewTicker creates a stopped ticker. In production pass clockwork.NewRealClock(),
// in tests a FakeClock.
func NewTicker(clock clockwork.Clock, interval time.Duration) *Ticker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{clock: clock, interval: interval}
}

// Restart cancels any running ticker and starts a fresh interval from now
func (t *Ticker) Restart() {
	t.Stop()
	t.active = t.clock.NewTicker(t.interval)
}

// Stop cancels the running ticker, if any
func (t *Ticker) Stop() {
	if t.active == nil {
		return
	}
	t.active.Stop()
	// drain a tick that may already be buffered
	select {
	case <-t.active.Chan():
	default:
	}
	t.active = nil
}

// C returns the tick channel. A stopped ticker returns nil, which blocks
// forever inside a select.
func (t *Ticker) C() <-chan time.Time {
	if t.active == nil {
		return nil
	}
	return t.active.Chan()
}

// Running reports whether a tick source is live
func (t *Ticker) Running() bool {
	return t.active != nil
}

// Sync aligns the tick source with the engine: restart when the engine was
// re-armed since lastGen, stop when it no longer needs ticks. It returns the
// generation to pass on the next call.
func (t *Ticker) Sync(e *Engine, lastGen uint64) uint64 {
	gen := e.Generation()
	switch {
	case !e.Ticking():
		t.Stop()
	case gen != lastGen || !t.Running():
		t.Restart()
	}
	return gen
}
