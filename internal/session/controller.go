package session

import (
	"context"
	"time"

	"github.com/KevinKickass/RoverLink/internal/command"
	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/stick"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventBufferSize = 64

type Config struct {
	SampleInterval time.Duration
	StickMaxOffset float64
}

type eventKind int

const (
	evPress eventKind = iota
	evRelease
	evStickBegin
	evStickMove
	evStickEnd
	evCancel
	evLinkOpened
	evLinkClosed
	evStatus
)

type event struct {
	kind    eventKind
	control input.Control
	x, y    float64
	reply   chan Status
}

// Status is a consistent view of the session taken inside the loop.
type Status struct {
	SessionID       string         `json:"session_id"`
	Running         bool           `json:"running"`
	CommandLinkOpen bool           `json:"command_link_open"`
	Sampling        bool           `json:"sampling"`
	Controls        map[string]int `json:"controls"`
	Stick           stick.View     `json:"stick"`
	Sampler         command.Stats  `json:"sampler"`
}

// Controller owns the operator input state for one session. All state is
// touched only by the Run goroutine; the exported methods enqueue events.
type Controller struct {
	id     uuid.UUID
	logger *zap.Logger

	store   *input.Store
	tracker *stick.Tracker
	sampler *command.Sampler

	linkOpen bool

	events chan event
	done   chan struct{}
}

func NewController(sink command.Sink, cfg Config, logger *zap.Logger) *Controller {
	id := uuid.New()
	logger = logger.With(zap.String("session_id", id.String()))

	store := input.NewStore()
	tracker := stick.NewTracker(cfg.StickMaxOffset)

	return &Controller{
		id:      id,
		logger:  logger,
		store:   store,
		tracker: tracker,
		sampler: command.NewSampler(store, tracker, sink, cfg.SampleInterval, logger),
		events:  make(chan event, eventBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Run is the session loop. Every event and every sampling tick is handled
// to completion before the next one. Run returns when ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.sampler.Stop()

	c.logger.Info("Session started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Session ended")
			return

		case ev := <-c.events:
			c.handle(ev)

		case <-c.sampler.C():
			c.sampler.Tick()
		}
	}
}

// Done is closed after Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case evPress:
		c.store.Press(ev.control)
	case evRelease:
		c.store.Release(ev.control)
	case evStickBegin:
		c.tracker.Begin(ev.x, ev.y)
	case evStickMove:
		c.tracker.Move(ev.x, ev.y)
	case evStickEnd:
		c.tracker.End()
	case evCancel:
		c.tracker.Reset()
		c.store.ReleaseMomentary()
		c.logger.Debug("Operator input cancelled")
	case evLinkOpened:
		c.linkOpen = true
		c.logger.Info("Command link opened")
		c.sampler.Start()
	case evLinkClosed:
		c.linkOpen = false
		c.sampler.Stop()
		c.tracker.Reset()
		c.logger.Info("Command link closed")
	case evStatus:
		ev.reply <- c.snapshotStatus()
	}
}

func (c *Controller) snapshotStatus() Status {
	controls := make(map[string]int)
	for ctl, v := range c.store.Values() {
		controls[ctl.String()] = v
	}
	return Status{
		SessionID:       c.id.String(),
		Running:         true,
		CommandLinkOpen: c.linkOpen,
		Sampling:        c.sampler.IsRunning(),
		Controls:        controls,
		Stick:           c.tracker.View(),
		Sampler:         c.sampler.Stats(),
	}
}

func (c *Controller) submit(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Press records a press-start on ctl.
func (c *Controller) Press(ctl input.Control) {
	c.submit(event{kind: evPress, control: ctl})
}

// Release records a press-end on ctl.
func (c *Controller) Release(ctl input.Control) {
	c.submit(event{kind: evRelease, control: ctl})
}

func (c *Controller) StickBegin(x, y float64) {
	c.submit(event{kind: evStickBegin, x: x, y: y})
}

func (c *Controller) StickMove(x, y float64) {
	c.submit(event{kind: evStickMove, x: x, y: y})
}

func (c *Controller) StickEnd() {
	c.submit(event{kind: evStickEnd})
}

// Cancel is sent when the operator surface goes away: the stick returns
// to center and held momentary controls are released.
func (c *Controller) Cancel() {
	c.submit(event{kind: evCancel})
}

// CommandLinkOpened schedules the sampler.
func (c *Controller) CommandLinkOpened() {
	c.submit(event{kind: evLinkOpened})
}

// CommandLinkClosed cancels the sampler.
func (c *Controller) CommandLinkClosed() {
	c.submit(event{kind: evLinkClosed})
}

// Status returns the session state. After Run has returned it reports
// Running false with the last known sampler counters.
func (c *Controller) Status() Status {
	reply := make(chan Status, 1)
	if !c.submit(event{kind: evStatus, reply: reply}) {
		return Status{SessionID: c.id.String(), Sampler: c.sampler.Stats()}
	}
	select {
	case st := <-reply:
		return st
	case <-c.done:
		return Status{SessionID: c.id.String(), Sampler: c.sampler.Stats()}
	}
}
