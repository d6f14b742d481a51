package display

import (
	"encoding/base64"
	"sync"
	"time"
)

type Kind string

const (
	// KindQuality is a single high-resolution capture.
	KindQuality Kind = "quality"
	// KindVideo is a live-stream frame.
	KindVideo Kind = "video"
)

// Frame is one decoded image shown on a target.
type Frame struct {
	Kind       Kind      `json:"kind"`
	MIME       string    `json:"mime"`
	Data       []byte    `json:"-"`
	Seq        uint64    `json:"seq"`
	ReceivedAt time.Time `json:"received_at"`
}

// DataURI renders the frame the way an <img> src expects it.
func (f Frame) DataURI() string {
	return "data:" + f.MIME + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Target is a display slot that always shows the most recent frame.
type Target struct {
	kind Kind

	mu          sync.RWMutex
	current     Frame
	has         bool
	seq         uint64
	subscribers []func(Frame)
}

func NewTarget(kind Kind) *Target {
	return &Target{kind: kind}
}

func (t *Target) Kind() Kind {
	return t.kind
}

// Replace swaps the shown frame. Older frames are not kept.
func (t *Target) Replace(f Frame) {
	t.mu.Lock()
	t.seq++
	f.Kind = t.kind
	f.Seq = t.seq
	if f.ReceivedAt.IsZero() {
		f.ReceivedAt = time.Now()
	}
	t.current = f
	t.has = true
	subs := t.subscribers
	t.mu.Unlock()

	for _, fn := range subs {
		fn(f)
	}
}

// Latest returns the shown frame, false if nothing arrived yet.
func (t *Target) Latest() (Frame, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.has
}

// Subscribe registers fn to be called after every Replace, on the
// replacing goroutine. fn must not block.
func (t *Target) Subscribe(fn func(Frame)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers[:len(t.subscribers):len(t.subscribers)], fn)
}
