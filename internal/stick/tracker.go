package stick

import "time"

type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
)

// DefaultMaxOffset is the travel of the stick from center, per axis.
const DefaultMaxOffset = 100.0

// ReturnTransition is how long renderers animate the return to center.
const ReturnTransition = 200 * time.Millisecond

// Offset is the stick displacement from center in screen space
// (x right-positive, y down-positive).
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// View is what a renderer needs to place the stick knob.
type View struct {
	Offset
	State State `json:"state"`
	// Smooth is set after a release: the knob should animate back to center.
	Smooth bool `json:"smooth"`
}

// Tracker turns pointer/touch gestures on the stick into an Offset.
// Not safe for concurrent use; owned by the session loop.
type Tracker struct {
	maxOffset float64
	state     State
	originX   float64
	originY   float64
	offset    Offset
	smooth    bool
}

// NewTracker clamps each axis to maxOffset. Values outside
// (0, DefaultMaxOffset] fall back to DefaultMaxOffset.
func NewTracker(maxOffset float64) *Tracker {
	if maxOffset <= 0 || maxOffset > DefaultMaxOffset {
		maxOffset = DefaultMaxOffset
	}
	return &Tracker{
		maxOffset: maxOffset,
		state:     StateIdle,
	}
}

// Begin starts a drag at the press coordinates (pointer, or first touch point).
func (t *Tracker) Begin(x, y float64) {
	t.state = StateDragging
	t.originX = x
	t.originY = y
	t.smooth = false
}

// Move updates the offset from the current pointer coordinates.
// It returns true when the event belongs to an active drag and the
// caller should suppress the default drag/scroll behavior.
func (t *Tracker) Move(x, y float64) bool {
	if t.state != StateDragging {
		return false
	}
	t.offset = Offset{
		X: clamp(x-t.originX, t.maxOffset),
		Y: clamp(y-t.originY, t.maxOffset),
	}
	return true
}

// End finishes the drag. Releases outside the stick count too.
func (t *Tracker) End() {
	if t.state != StateDragging {
		return
	}
	t.Reset()
	t.smooth = true
}

// Reset pins the stick to center without an animated return, for
// connection-ending events.
func (t *Tracker) Reset() {
	t.state = StateIdle
	t.offset = Offset{}
	t.smooth = false
}

// Offset returns the current displacement. It has no side effects.
func (t *Tracker) Offset() Offset {
	return t.offset
}

func (t *Tracker) State() State {
	return t.state
}

func (t *Tracker) View() View {
	return View{Offset: t.offset, State: t.state, Smooth: t.smooth}
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
