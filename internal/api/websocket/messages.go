package websocket

import (
	"time"

	"github.com/KevinKickass/RoverLink/internal/display"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Frame messages, one per display target
	MessageTypeVideo   MessageType = "video"
	MessageTypeQuality MessageType = "quality"

	// Auth messages
	MessageTypeAuth        MessageType = "auth"
	MessageTypeAuthSuccess MessageType = "auth_success"
	MessageTypeAuthFailed  MessageType = "auth_failed"

	// Operator input messages
	MessageTypePress      MessageType = "press"
	MessageTypeRelease    MessageType = "release"
	MessageTypeStickBegin MessageType = "stick_begin"
	MessageTypeStickMove  MessageType = "stick_move"
	MessageTypeStickEnd   MessageType = "stick_end"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FrameData carries one image for a display target.
type FrameData struct {
	Seq     uint64 `json:"seq"`
	MIME    string `json:"mime"`
	DataURI string `json:"data_uri"`
}

// InputMessage is sent by the operator page for every device event.
type InputMessage struct {
	Type    MessageType `json:"type"`
	Token   string      `json:"token,omitempty"`
	Control string      `json:"control,omitempty"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewFrameMessage(f display.Frame) Message {
	msgType := MessageTypeVideo
	if f.Kind == display.KindQuality {
		msgType = MessageTypeQuality
	}
	return NewMessage(msgType, FrameData{
		Seq:     f.Seq,
		MIME:    f.MIME,
		DataURI: f.DataURI(),
	})
}
