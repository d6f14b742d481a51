package input

// Store holds the activation value of every control. Each field is 0 or 1.
//
// A Store is not safe for concurrent use. It is owned by the session loop,
// which is the only writer (event handlers) and the only reader (sampler).
type Store struct {
	driveLeft  int
	driveRight int

	camLeft  int
	camRight int
	camUp    int
	camDown  int

	takePicture     int
	previousPicture int
	nextPicture     int
}

// NewStore returns a store with every control at 0.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) field(c Control) *int {
	switch c {
	case DriveLeft:
		return &s.driveLeft
	case DriveRight:
		return &s.driveRight
	case CamLeft:
		return &s.camLeft
	case CamRight:
		return &s.camRight
	case CamUp:
		return &s.camUp
	case CamDown:
		return &s.camDown
	case TakePicture:
		return &s.takePicture
	case PreviousPicture:
		return &s.previousPicture
	case NextPicture:
		return &s.nextPicture
	}
	return nil
}

// Press handles a press-start (pointer-down / touch-start).
// One-shot controls ignore it so that holding the capture button
// does not produce a continuous capture command.
func (s *Store) Press(c Control) {
	if c.Family() != Momentary {
		return
	}
	if f := s.field(c); f != nil {
		*f = 1
	}
}

// Release handles a press-end (pointer-up / touch-end).
func (s *Store) Release(c Control) {
	f := s.field(c)
	if f == nil {
		return
	}
	switch c.Family() {
	case Momentary:
		*f = 0
	case OneShot:
		*f = 1
	}
}

// Value returns the current activation of c, 0 for unknown controls.
func (s *Store) Value(c Control) int {
	if f := s.field(c); f != nil {
		return *f
	}
	return 0
}

// ClearOneShots consumes the latched one-shot controls.
func (s *Store) ClearOneShots() {
	s.takePicture = 0
	s.previousPicture = 0
	s.nextPicture = 0
}

// ReleaseMomentary drops every held momentary control, e.g. when the
// operator surface disconnects mid-press.
func (s *Store) ReleaseMomentary() {
	s.driveLeft, s.driveRight = 0, 0
	s.camLeft, s.camRight, s.camUp, s.camDown = 0, 0, 0, 0
}

// Values returns a copy of the store keyed by control, for status output.
func (s *Store) Values() map[Control]int {
	out := make(map[Control]int, len(controlIDs))
	for _, c := range AllControls() {
		out[c] = s.Value(c)
	}
	return out
}
