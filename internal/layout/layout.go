package layout

import (
	"fmt"
	"os"

	"github.com/KevinKickass/RoverLink/internal/input"
	"gopkg.in/yaml.v3"
)

// Layout describes which controls the operator surface offers.
type Layout struct {
	Title   string   `yaml:"title" json:"title"`
	Stick   bool     `yaml:"stick" json:"stick"`
	Buttons []Button `yaml:"buttons" json:"buttons"`

	// Ignored lists button ids that do not name a known control.
	Ignored []string `yaml:"-" json:"ignored,omitempty"`

	controls map[input.Control]bool
}

type Button struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Family string `yaml:"-" json:"family"`
}

// Default offers every control plus the stick.
func Default() *Layout {
	l := &Layout{Title: "Rover", Stick: true}
	labels := map[input.Control]string{
		input.DriveLeft:       "Left",
		input.DriveRight:      "Right",
		input.CamLeft:         "Camera left",
		input.CamRight:        "Camera right",
		input.CamUp:           "Camera up",
		input.CamDown:         "Camera down",
		input.TakePicture:     "Take picture",
		input.PreviousPicture: "Previous picture",
		input.NextPicture:     "Next picture",
	}
	for _, c := range input.AllControls() {
		l.Buttons = append(l.Buttons, Button{ID: c.String(), Label: labels[c]})
	}
	l.index()
	return l
}

// Load reads a YAML layout. An empty path returns Default.
func Load(path string) (*Layout, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	seen := make(map[string]bool, len(l.Buttons))
	for _, b := range l.Buttons {
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate button id %q", b.ID)
		}
		seen[b.ID] = true
	}

	l.index()
	return &l, nil
}

func (l *Layout) index() {
	l.controls = make(map[input.Control]bool, len(l.Buttons))
	buttons := l.Buttons[:0]
	for _, b := range l.Buttons {
		c, ok := input.ParseControl(b.ID)
		if !ok {
			l.Ignored = append(l.Ignored, b.ID)
			continue
		}
		if b.Label == "" {
			b.Label = b.ID
		}
		b.Family = c.Family().String()
		l.controls[c] = true
		buttons = append(buttons, b)
	}
	l.Buttons = buttons
}

// Control resolves a button id that is present on this surface.
func (l *Layout) Control(id string) (input.Control, bool) {
	c, ok := input.ParseControl(id)
	if !ok || !l.controls[c] {
		return 0, false
	}
	return c, true
}
