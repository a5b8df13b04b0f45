package timer

// Simple timer synchronization - the server is the clock.
//
// The engine never invents a deadline. It is armed from an authoritative
// "seconds remaining" value and then counts down locally, one Tick per
// interval, purely as visual feedback. The host owns the tick source.

// Kind is what the countdown is measuring
type Kind string

const (
	KindNone      Kind = ""
	KindCountdown Kind = "countdown"
	KindQuestion  Kind = "question"
)

// Display is a read-only view of the engine for rendering
type Display struct {
	Kind      Kind `json:"kind"`
	Remaining int  `json:"remaining"`
	Expired   bool `json:"expired"`
	Armed     bool `json:"armed"`
}

// Engine owns a single locally-ticking countdown
type Engine struct {
	kind       Kind
	remaining  int
	expired    bool
	armed      bool
	generation uint64
}

// NewEngine returns a disarmed engine
func NewEngine() *Engine {
	return &Engine{}
}

// Arm (re)starts the countdown from seconds. Any previous countdown is
// abandoned; negative values clamp to zero.
func (e *Engine) Arm(kind Kind, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	e.kind = kind
	e.remaining = seconds
	e.expired = seconds == 0
	e.armed = true
	e.generation++
}

// Disarm stops ticking and clears the display
func (e *Engine) Disarm() {
	e.kind = KindNone
	e.remaining = 0
	e.expired = false
	e.armed = false
}

// Tick advances the countdown by one interval. It reports whether the
// remaining value changed.
func (e *Engine) Tick() bool {
	if !e.Ticking() {
		return false
	}
	e.remaining--
	if e.remaining <= 0 {
		e.remaining = 0
		e.expired = true
	}
	return true
}

// Ticking reports whether the engine still needs ticks
func (e *Engine) Ticking() bool {
	return e.armed && !e.expired && e.remaining > 0
}

func (e *Engine) Remaining() int { return e.remaining }

func (e *Engine) Expired() bool { return e.expired }

func (e *Engine) Armed() bool { return e.armed }

func (e *Engine) Kind() Kind { return e.kind }

// Generation increments on every Arm. Tick sources compare it to know when
// to restart their interval.
func (e *Engine) Generation() uint64 { return e.generation }

// Display returns the current display value
func (e *Engine) Display() Display {
	return Display{
		Kind:      e.kind,
		Remaining: e.remaining,
		Expired:   e.expired,
		Armed:     e.armed,
	}
}
