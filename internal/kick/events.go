package kick

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event names used by the relay. Application events carry their payload as
// a JSON-encoded string inside "data" (double encoding); pusher control
// events usually carry a plain object.
const (
	EventSubscribe             = "pusher:subscribe"
	EventConnectionEstablished = "pusher:connection_established"
	EventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	EventPong                  = "pusher:pong"
	EventError                 = "pusher:error"

	EventChatMessage     = `App\Events\ChatMessageEvent`
	EventMessageDeleted  = `App\Events\DeletedMessageEvent`
	EventUserBanned      = `App\Events\UserBannedEvent`
	EventUserUnbanned    = `App\Events\UserUnbannedEvent`
	EventChatroomUpdated = `App\Events\ChatroomUpdatedEvent`
	EventChatroomClear   = `App\Events\ChatroomClearEvent`
	EventPollUpdate      = `App\Events\PollUpdateEvent`
	EventPollDelete      = `App\Events\PollDeleteEvent`
)

// Event is the relay envelope: an event name, the channel it was published
// on, and an opaque payload. Unknown event names are surfaced as-is so
// callers can still inspect the raw data.
type Event struct {
	Name    string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// UnmarshalData decodes the event payload into v, unwrapping the relay's
// string-encoded JSON when present.
func (e *Event) UnmarshalData(v any) error {
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("unwrap data string: %w", err)
		}
		raw = []byte(s)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Decode returns the typed payload for known event names. Unrecognized
// events decode to the envelope itself, leaving interpretation to the
// caller.
func (e *Event) Decode() (any, error) {
	var v any
	switch e.Name {
	case EventChatMessage:
		v = &ChatMessageEvent{}
	case EventMessageDeleted:
		v = &DeletedMessageEvent{}
	case EventUserBanned:
		v = &UserBannedEvent{}
	case EventUserUnbanned:
		v = &UserUnbannedEvent{}
	case EventChatroomUpdated:
		v = &ChatroomUpdatedEvent{}
	case EventChatroomClear:
		v = &ChatroomClearEvent{}
	case EventPollUpdate:
		v = &PollUpdateEvent{}
	case EventPollDelete:
		v = &PollDeleteEvent{}
	case EventConnectionEstablished:
		v = &ConnectionEstablishedEvent{}
	case EventSubscriptionSucceeded:
		v = &SubscriptionSucceededEvent{}
	case EventPong:
		v = &PongEvent{}
	default:
		return e, nil
	}
	if err := e.UnmarshalData(v); err != nil {
		return nil, newError(KindDecode, "decode "+e.Name, err)
	}
	return v, nil
}

func (e *Event) protocolError() error {
	var data struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := e.UnmarshalData(&data); err != nil || data.Message == "" {
		return fmt.Errorf("relay rejected request")
	}
	return fmt.Errorf("relay rejected request: %s (code %d)", data.Message, data.Code)
}

// ChatMessageEvent is a message posted in a subscribed chatroom.
type ChatMessageEvent struct {
	ID         string        `json:"id"`
	ChatroomID int64         `json:"chatroom_id"`
	Content    string        `json:"content"`
	Type       string        `json:"type"`
	CreatedAt  string        `json:"created_at"`
	Sender     MessageSender `json:"sender"`
}

// MessageSender identifies who posted a chat message.
type MessageSender struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Slug     string         `json:"slug"`
	Identity SenderIdentity `json:"identity"`
}

// SenderIdentity carries chat cosmetics: name color and badges.
type SenderIdentity struct {
	Color  string  `json:"color"`
	Badges []Badge `json:"badges"`
}

// Badge is a chat badge. Count is nil for badges without a counter
// (moderator, verified); subscriber badges carry the month count.
type Badge struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Count *int   `json:"count,omitempty"`
}

// DeletedMessageEvent signals a moderator or AI removed a message.
type DeletedMessageEvent struct {
	ID          string         `json:"id"`
	Message     DeletedMessage `json:"message"`
	AIModerated bool           `json:"ai_moderated"`
}

type DeletedMessage struct {
	ID string `json:"id"`
}

// ChatUser is the minimal user reference used by moderation events.
type ChatUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Slug     string `json:"slug"`
}

type UserBannedEvent struct {
	ID        string   `json:"id"`
	User      ChatUser `json:"user"`
	BannedBy  ChatUser `json:"banned_by"`
	Permanent bool     `json:"permanent"`
	Duration  *int64   `json:"duration,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
}

type UserUnbannedEvent struct {
	ID         string   `json:"id"`
	User       ChatUser `json:"user"`
	UnbannedBy ChatUser `json:"unbanned_by"`
	Permanent  bool     `json:"permanent"`
}

// ChatroomUpdatedEvent reports a change to chatroom moderation settings.
type ChatroomUpdatedEvent struct {
	ID                    int64                 `json:"id"`
	SlowMode              SlowMode              `json:"slow_mode"`
	SubscribersMode       ToggleMode            `json:"subscribers_mode"`
	FollowersMode         FollowersMode         `json:"followers_mode"`
	EmotesMode            ToggleMode            `json:"emotes_mode"`
	AdvancedBotProtection AdvancedBotProtection `json:"advanced_bot_protection"`
}

type SlowMode struct {
	Enabled         bool  `json:"enabled"`
	MessageInterval int64 `json:"message_interval"`
}

type ToggleMode struct {
	Enabled bool `json:"enabled"`
}

type FollowersMode struct {
	Enabled     bool  `json:"enabled"`
	MinDuration int64 `json:"min_duration"`
}

type AdvancedBotProtection struct {
	Enabled       bool  `json:"enabled"`
	RemainingTime int64 `json:"remaining_time"`
}

// ChatroomClearEvent signals the whole chatroom history was cleared.
type ChatroomClearEvent struct {
	ID string `json:"id"`
}

type PollUpdateEvent struct {
	Poll Poll `json:"poll"`
}

type Poll struct {
	Title                 string       `json:"title"`
	Options               []PollOption `json:"options"`
	Duration              int          `json:"duration"`
	Remaining             int          `json:"remaining"`
	ResultDisplayDuration int          `json:"result_display_duration"`
}

type PollOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

type PollDeleteEvent struct{}

// ConnectionEstablishedEvent is the relay's greeting after the transport
// handshake.
type ConnectionEstablishedEvent struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

type SubscriptionSucceededEvent struct{}

type PongEvent struct{}
