package events

import (
	"context"
	"time"

	"github.com/weiawesome/wes-chat-room/internal/domain"
)

// Change feed event types.
const (
	TypeMessageAdded   = "message.added"
	TypeMessageUpdated = "message.updated"
)

// MessageEvent is published after a message is durably stored.
type MessageEvent struct {
	Type    string             `json:"type"`
	RoomKey string             `json:"room_key"`
	Message domain.ChatMessage `json:"message"`
	At      time.Time          `json:"at"`
}

// NewMessageEvent builds the event for a stored message.
func NewMessageEvent(roomKey string, msg domain.ChatMessage, added bool) *MessageEvent {
	t := TypeMessageUpdated
	if added {
		t = TypeMessageAdded
	}
	return &MessageEvent{
		Type:    t,
		RoomKey: roomKey,
		Message: msg,
		At:      time.Now().UTC(),
	}
}

// Publisher emits change feed events.
type Publisher interface {
	Publish(ctx context.Context, event *MessageEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event *MessageEvent) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }
