package command

import (
	"sync/atomic"
	"time"

	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/stick"
	"go.uber.org/zap"
)

// DefaultInterval is the command cadence expected by the platform.
const DefaultInterval = 100 * time.Millisecond

// Sink receives encoded snapshots. Send must not block; a link that is not
// open returns an error and the snapshot is dropped.
type Sink interface {
	Send(data []byte) error
}

// Stats counts sampler activity since the session started.
type Stats struct {
	Ticks   uint64 `json:"ticks"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Sampler is the fixed-cadence task that turns input state into commands.
//
// Start, Stop, C and Tick must be called from the goroutine that owns the
// store and tracker (the session loop). Stats may be read from anywhere.
type Sampler struct {
	store    *input.Store
	tracker  *stick.Tracker
	sink     Sink
	interval time.Duration
	logger   *zap.Logger

	ticker *time.Ticker

	ticks   atomic.Uint64
	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewSampler(store *input.Store, tracker *stick.Tracker, sink Sink, interval time.Duration, logger *zap.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		store:    store,
		tracker:  tracker,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the sampling timer. Calling Start while running is a no-op.
func (s *Sampler) Start() {
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)

	s.logger.Info("Sampler started", zap.Duration("interval", s.interval))
}

// Stop cancels the sampling timer. Calling Stop while stopped is a no-op.
func (s *Sampler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil

	s.logger.Info("Sampler stopped")
}

// IsRunning reports whether the timer is scheduled.
func (s *Sampler) IsRunning() bool {
	return s.ticker != nil
}

// C delivers timer ticks. It is nil while stopped, so a select on it blocks.
func (s *Sampler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// Tick samples the inputs once, sends the snapshot and consumes one-shot
// controls. One-shots are cleared whether or not the send succeeded.
func (s *Sampler) Tick() Snapshot {
	s.ticks.Add(1)

	snap := Build(s.store, s.tracker.Offset())
	defer s.store.ClearOneShots()

	data, err := Encode(snap)
	if err != nil {
		s.dropped.Add(1)
		s.logger.Error("Snapshot encoding failed", zap.Error(err))
		return snap
	}

	if err := s.sink.Send(data); err != nil {
		s.dropped.Add(1)
		s.logger.Debug("Snapshot dropped", zap.Error(err))
		return snap
	}

	s.sent.Add(1)
	return snap
}

func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:   s.ticks.Load(),
		Sent:    s.sent.Load(),
		Dropped: s.dropped.Load(),
	}
}
