package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Fallback when the payload does not sniff as an image; the platform
// sends JPEG.
const defaultMIME = "image/jpeg"

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrEmptyData   = errors.New("empty image data")
)

// Message is one inbound media payload.
type Message struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Sink is a display target.
type Sink interface {
	Replace(display.Frame)
}

// Stats counts dispatched messages.
type Stats struct {
	Quality  uint64 `json:"quality"`
	Video    uint64 `json:"video"`
	Rejected uint64 `json:"rejected"`
}

// Dispatcher routes media messages to the display target of their kind.
type Dispatcher struct {
	validator *Validator
	quality   Sink
	video     Sink
	logger    *zap.Logger

	qualityCount  atomic.Uint64
	videoCount    atomic.Uint64
	rejectedCount atomic.Uint64
}

func NewDispatcher(quality, video Sink, logger *zap.Logger) (*Dispatcher, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Dispatcher{
		validator: validator,
		quality:   quality,
		video:     video,
		logger:    logger,
	}, nil
}

// Dispatch handles one raw inbound message. Malformed or unknown messages
// are logged and dropped; Dispatch never panics on bad input.
func (d *Dispatcher) Dispatch(raw []byte) {
	if err := d.dispatch(raw); err != nil {
		d.rejectedCount.Add(1)
		d.logger.Warn("Media message discarded", zap.Error(err))
	}
}

func (d *Dispatcher) dispatch(raw []byte) error {
	msg, err := d.validator.Decode(raw)
	if err != nil {
		return err
	}

	var target Sink
	switch display.Kind(msg.Type) {
	case display.KindQuality:
		target = d.quality
	case display.KindVideo:
		target = d.video
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	frame, err := decodeFrame(msg)
	if err != nil {
		return err
	}

	target.Replace(frame)

	if frame.Kind == display.KindQuality {
		d.qualityCount.Add(1)
		d.logger.Info("High-quality picture received", zap.Int("bytes", len(frame.Data)))
	} else {
		d.videoCount.Add(1)
	}
	return nil
}

func decodeFrame(msg Message) (display.Frame, error) {
	if msg.Data == "" {
		return display.Frame{}, fmt.Errorf("%s message: %w", msg.Type, ErrEmptyData)
	}

	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return display.Frame{}, fmt.Errorf("%s message: invalid base64: %w", msg.Type, err)
	}

	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		mime = defaultMIME
	}

	return display.Frame{
		Kind:       display.Kind(msg.Type),
		MIME:       mime,
		Data:       data,
		ReceivedAt: time.Now(),
	}, nil
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Quality:  d.qualityCount.Load(),
		Video:    d.videoCount.Load(),
		Rejected: d.rejectedCount.Load(),
	}
}
