package domain

import (
	"strconv"
	"time"
)

// Platform event names
const (
	EventUserSendText     = "user_send_text"
	EventUserSendImage    = "user_send_image"
	EventUserSendFile     = "user_send_file"
	EventUserSendSticker  = "user_send_sticker"
	EventUserSendLocation = "user_send_location"
)

// InboundEvent is one webhook delivery from the messaging platform
type InboundEvent struct {
	AppID     string        `json:"app_id"`
	EventType string        `json:"event_name" validate:"required"`
	Sender    EventSender   `json:"sender"`
	Message   *EventMessage `json:"message" validate:"required_if=EventType user_send_text"`
	Timestamp string        `json:"timestamp" validate:"required,numeric"`
}

// EventSender identifies the customer
type EventSender struct {
	ID string `json:"id" validate:"required,max=64"`
}

// EventMessage is the message body
type EventMessage struct {
	MsgID string `json:"msg_id"`
	Text  string `json:"text" validate:"max=2000"`
}

// IsText reports whether the event carries a text message
func (e InboundEvent) IsText() bool {
	return e.EventType == EventUserSendText && e.Message != nil
}

// Text returns the message text, empty for non-text events
func (e InboundEvent) Text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Text
}

// OccurredAt parses the millisecond timestamp, falling back to now
func (e InboundEvent) OccurredAt() time.Time {
	ms, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil || ms <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ms).UTC()
}
