package input

import "fmt"

// Control identifies a button on the operator surface.
type Control int

const (
	DriveLeft Control = iota
	DriveRight
	CamLeft
	CamRight
	CamUp
	CamDown
	TakePicture
	PreviousPicture
	NextPicture
)

// Family decides how press and release events update a control.
type Family int

const (
	// Momentary controls follow the physical press state.
	Momentary Family = iota
	// OneShot controls latch on release until the sampler consumes them.
	OneShot
)

// Wire identifiers as used by the operator page.
var controlIDs = map[Control]string{
	DriveLeft:       "vasen",
	DriveRight:      "oikea",
	CamLeft:         "camLeft",
	CamRight:        "camRight",
	CamUp:           "camUp",
	CamDown:         "camDown",
	TakePicture:     "takePicture",
	PreviousPicture: "previousPic",
	NextPicture:     "nextPic",
}

var controlsByID = func() map[string]Control {
	m := make(map[string]Control, len(controlIDs))
	for c, id := range controlIDs {
		m[id] = c
	}
	return m
}()

// AllControls lists every known control in declaration order.
func AllControls() []Control {
	return []Control{
		DriveLeft, DriveRight,
		CamLeft, CamRight, CamUp, CamDown,
		TakePicture, PreviousPicture, NextPicture,
	}
}

// ParseControl maps a wire identifier to a Control. Unknown identifiers
// return false and must be ignored by the caller.
func ParseControl(id string) (Control, bool) {
	c, ok := controlsByID[id]
	return c, ok
}

func (c Control) String() string {
	if id, ok := controlIDs[c]; ok {
		return id
	}
	return fmt.Sprintf("control(%d)", int(c))
}

// Family returns the update policy of the control.
func (c Control) Family() Family {
	switch c {
	case TakePicture, PreviousPicture, NextPicture:
		return OneShot
	default:
		return Momentary
	}
}

func (f Family) String() string {
	switch f {
	case Momentary:
		return "momentary"
	case OneShot:
		return "one_shot"
	default:
		return "unknown"
	}
}
