package system

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type SystemState int

const (
	StateInitializing SystemState = iota
	// Running: operator surface up, platform links dialing or open.
	StateRunning
	// Degraded: a platform link was lost or never came up. Links are dialed
	// once, so the console stays degraded until it is stopped.
	StateDegraded
	StateStopping
	StateStopped
	// Error: the operator surface failed to start.
	StateError
)

func (s SystemState) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateDegraded:
		return "DEGRADED"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var transitions = map[SystemState][]SystemState{
	StateInitializing: {StateRunning, StateError, StateStopping},
	StateRunning:      {StateDegraded, StateStopping},
	StateDegraded:     {StateStopping},
	StateStopping:     {StateStopped},
	StateStopped:      {},
	StateError:        {StateStopping},
}

func ValidateTransition(from, to SystemState) error {
	allowed, exists := transitions[from]
	if !exists {
		return fmt.Errorf("%w: unknown state %s", ErrInvalidTransition, from)
	}

	for _, validTo := range allowed {
		if validTo == to {
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
