package command

import (
	"encoding/json"
	"fmt"

	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/stick"
)

// Snapshot is one command record sent to the platform per sampling tick.
// Field names follow the platform's wire format.
type Snapshot struct {
	DriveLeft     int      `json:"var1"`
	DriveRight    int      `json:"var2"`
	Joystick      Joystick `json:"joystick"`
	CamTurning    Turning  `json:"camTurning"`
	TakePicture   int      `json:"var4"`
	ChangePicture int      `json:"var5"`
}

// Joystick is the stick offset in command space (y up-positive).
type Joystick struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Turning holds a -1/0/1 direction per axis.
type Turning struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Build reads the input store and the stick offset into a snapshot.
// Opposite camera presses cancel out to 0.
func Build(store *input.Store, offset stick.Offset) Snapshot {
	return Snapshot{
		DriveLeft:  store.Value(input.DriveLeft),
		DriveRight: store.Value(input.DriveRight),
		Joystick: Joystick{
			X: offset.X,
			Y: invert(offset.Y),
		},
		CamTurning: Turning{
			X: -store.Value(input.CamLeft) + store.Value(input.CamRight),
			Y: -store.Value(input.CamDown) + store.Value(input.CamUp),
		},
		TakePicture:   store.Value(input.TakePicture),
		ChangePicture: -store.Value(input.PreviousPicture) + store.Value(input.NextPicture),
	}
}

// Encode serializes a snapshot for the command link.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// invert flips screen-space y to command-space y without producing -0.
func invert(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}
