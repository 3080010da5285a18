package presenter

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	SlideChange MessageType = "SLIDE_CHANGE"
	Close       MessageType = "CLOSE"
	Pause       MessageType = "PAUSE"
	Resume      MessageType = "RESUME"
	TimerUpdate MessageType = "TIMER_UPDATE"
)

func (t MessageType) Valid() bool {
	switch t {
	case SlideChange, Close, Pause, Resume, TimerUpdate:
		return true
	}
	return false
}

// Message is one command on a presenter channel. Messages are idempotent:
// slide indexes and timer values are absolute, so a late or repeated message
// never moves state relative to what it was.
type Message struct {
	Type    MessageType     `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Sender  string          `json:"sender,omitempty"`
}

type SlidePayload struct {
	Index int `json:"index"`
}

type TimerPayload struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

func NewMessage(t MessageType, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, err
		}
		msg.Payload = raw
	}
	return msg, nil
}

// Validate checks the type and that payload-carrying messages decode.
func (m Message) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	switch m.Type {
	case SlideChange:
		var p SlidePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return fmt.Errorf("slide change payload: %w", err)
		}
		if p.Index < 0 {
			return fmt.Errorf("slide index %d out of range", p.Index)
		}
	case TimerUpdate:
		var p TimerPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return fmt.Errorf("timer payload: %w", err)
		}
	}
	return nil
}
