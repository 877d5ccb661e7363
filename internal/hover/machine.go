package hover

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// FrameInterval is the throttle window, one animation frame.
const FrameInterval = 16 * time.Millisecond

// Phase is the state of a Machine.
type Phase int

const (
	// Idle shows no highlight.
	Idle Phase = iota
	// Active shows the highlight for the last flushed target.
	Active
	// Pending holds a target waiting for the next frame. Cancellations are
	// suppressed until it is flushed.
	Pending
)

func (p Phase) String() string {
	switch p {
	case Active:
		return "active"
	case Pending:
		return "pending"
	default:
		return "idle"
	}
}

// Update changes one highlight marker.
type Update struct {
	Trace   int
	Visible bool
	Point   Point
}

// Machine coalesces hover targets into at most one flush per frame and
// emits only the marker changes that differ from what is already shown.
type Machine struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	lookups [][]Point
	apply   func([]Update)

	phase  Phase
	target int64
	timer  clockwork.Timer
	shown  []Update
}

// NewMachine creates a machine over one lookup per highlight trace. apply
// receives every non-empty batch of updates.
func NewMachine(lookups [][]Point, clock clockwork.Clock, apply func([]Update)) *Machine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	shown := make([]Update, len(lookups))
	for i := range shown {
		shown[i] = Update{Trace: i}
	}
	return &Machine{
		clock:   clock,
		lookups: lookups,
		apply:   apply,
		shown:   shown,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Schedule records a hover target. The first target in a frame arms the
// frame timer; later ones only replace the target.
func (m *Machine) Schedule(target int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = target
	if m.phase == Pending {
		return
	}
	m.phase = Pending
	m.timer = m.clock.AfterFunc(FrameInterval, m.Flush)
}

// Flush applies the pending target now. It is a no-op unless a target is
// pending.
func (m *Machine) Flush() {
	m.mu.Lock()
	if m.phase != Pending {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.phase = Active
	updates := m.diff(m.target, true)
	m.mu.Unlock()

	m.emit(updates)
}

// Cancel hides every marker, unless a target is pending, in which case the
// pending flush wins.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.phase == Pending {
		m.mu.Unlock()
		return
	}
	m.phase = Idle
	updates := m.diff(0, false)
	m.mu.Unlock()

	m.emit(updates)
}

// diff computes the updates needed to show target, or to hide everything.
func (m *Machine) diff(target int64, show bool) []Update {
	var updates []Update
	for i, points := range m.lookups {
		want := Update{Trace: i}
		if show {
			if p, ok := Nearest(points, target); ok {
				want = Update{Trace: i, Visible: true, Point: p}
			}
		}
		if sameMarker(m.shown[i], want) {
			continue
		}
		m.shown[i] = want
		updates = append(updates, want)
	}
	return updates
}

func sameMarker(a, b Update) bool {
	if !a.Visible && !b.Visible {
		return true
	}
	return a.Visible == b.Visible && a.Point.X == b.Point.X && a.Point.Y == b.Point.Y
}

func (m *Machine) emit(updates []Update) {
	if len(updates) > 0 && m.apply != nil {
		m.apply(updates)
	}
}
