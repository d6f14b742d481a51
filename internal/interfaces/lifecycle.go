package interfaces

import (
	"context"

	"github.com/KevinKickass/RoverLink/internal/config"
	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/layout"
	"github.com/KevinKickass/RoverLink/internal/media"
	"github.com/KevinKickass/RoverLink/internal/session"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State           string         `json:"state"`
	Session         session.Status `json:"session"`
	CommandLink     string         `json:"command_link"`
	MediaLink       string         `json:"media_link"`
	OperatorClients int            `json:"operator_clients"`
	Media           media.Stats    `json:"media"`
}

// Session is the operator input side of a running console.
type Session interface {
	Press(input.Control)
	Release(input.Control)
	StickBegin(x, y float64)
	StickMove(x, y float64)
	StickEnd()
	Cancel()
	Status() session.Status
}

type LifecycleManager interface {
	Config() *config.Config
	Layout() *layout.Layout
	Session() Session
	Target(kind display.Kind) (*display.Target, bool)
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
