package chat

import (
	"context"

	"pixel-beach/server/logging"
)

const (
	// EventUserSpoke is emitted when a user broadcasts a bubble.
	EventUserSpoke logging.EventType = "chat.user_spoke"
	// EventMessageExpired is emitted when a bubble times out on its own.
	EventMessageExpired logging.EventType = "chat.message_expired"
)

// UserSpokePayload records message metadata, never the text itself.
type UserSpokePayload struct {
	Length     int  `json:"length"`
	Superseded bool `json:"superseded"`
}

// UserSpoke publishes a chat event.
func UserSpoke(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload UserSpokePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventUserSpoke,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryChat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// MessageExpired publishes a bubble expiry event.
func MessageExpired(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMessageExpired,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryChat,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
