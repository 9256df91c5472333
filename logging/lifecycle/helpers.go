package lifecycle

import (
	"context"

	"pixel-beach/server/logging"
)

const (
	// EventUserJoined is emitted when a logical identity first appears in
	// the room. Extra tabs attaching to an existing name do not emit it.
	EventUserJoined logging.EventType = "lifecycle.user_joined"
	// EventUserLeft is emitted when the last connection for an identity
	// goes away.
	EventUserLeft logging.EventType = "lifecycle.user_left"
)

// UserJoinedPayload captures spawn metadata for a new identity.
type UserJoinedPayload struct {
	AvatarID string `json:"avatarId"`
	SpawnX   int    `json:"spawnX"`
	SpawnY   int    `json:"spawnY"`
}

// UserLeftPayload captures the reason an identity left.
type UserLeftPayload struct {
	Reason string `json:"reason"`
}

// UserJoined publishes a user join event.
func UserJoined(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload UserJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventUserJoined,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// UserLeft publishes a user departure event.
func UserLeft(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload UserLeftPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventUserLeft,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
