package kick

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalDataStringWrapped(t *testing.T) {
	// The relay double-encodes application payloads as JSON strings
	ev := Event{
		Name: EventChatMessage,
		Data: json.RawMessage(`"{\"id\":\"m1\",\"chatroom_id\":42,\"content\":\"hi\"}"`),
	}

	var msg ChatMessageEvent
	require.NoError(t, ev.UnmarshalData(&msg))
	require.Equal(t, "m1", msg.ID)
	require.Equal(t, int64(42), msg.ChatroomID)
	require.Equal(t, "hi", msg.Content)
}

func TestUnmarshalDataPlainObject(t *testing.T) {
	// pusher:connection_established arrives with a plain object payload
	ev := Event{
		Name: EventConnectionEstablished,
		Data: json.RawMessage(`{"socket_id":"123.456","activity_timeout":120}`),
	}

	var data ConnectionEstablishedEvent
	require.NoError(t, ev.UnmarshalData(&data))
	require.Equal(t, "123.456", data.SocketID)
	require.Equal(t, 120, data.ActivityTimeout)
}

func TestUnmarshalDataEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", `""`} {
		ev := Event{Name: EventPong, Data: json.RawMessage(raw)}
		var data PongEvent
		require.NoError(t, ev.UnmarshalData(&data), "raw=%q", raw)
	}
}

func TestDecodeKnownEvents(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{
			name: EventMessageDeleted,
			data: `"{\"id\":\"d1\",\"message\":{\"id\":\"m9\"},\"ai_moderated\":true}"`,
			want: &DeletedMessageEvent{ID: "d1", Message: DeletedMessage{ID: "m9"}, AIModerated: true},
		},
		{
			name: EventChatroomClear,
			data: `"{\"id\":\"c1\"}"`,
			want: &ChatroomClearEvent{ID: "c1"},
		},
		{
			name: EventUserBanned,
			data: `"{\"id\":\"b1\",\"user\":{\"id\":7,\"username\":\"spammer\",\"slug\":\"spammer\"},\"banned_by\":{\"id\":1,\"username\":\"mod\",\"slug\":\"mod\"},\"permanent\":true}"`,
			want: &UserBannedEvent{
				ID:        "b1",
				User:      ChatUser{ID: 7, Username: "spammer", Slug: "spammer"},
				BannedBy:  ChatUser{ID: 1, Username: "mod", Slug: "mod"},
				Permanent: true,
			},
		},
		{
			name: EventSubscriptionSucceeded,
			data: `"{}"`,
			want: &SubscriptionSucceededEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Name: tt.name, Data: json.RawMessage(tt.data)}
			got, err := ev.Decode()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUnknownEventPassesThrough(t *testing.T) {
	ev := Event{
		Name: "App\\Events\\GiftedSubscriptionsEvent",
		Data: json.RawMessage(`"{\"gifted_usernames\":[\"a\",\"b\"]}"`),
	}

	got, err := ev.Decode()
	require.NoError(t, err)
	require.Same(t, &ev, got.(*Event))
}

func TestDecodeBadPayload(t *testing.T) {
	ev := Event{
		Name: EventChatMessage,
		Data: json.RawMessage(`"not an object"`),
	}

	_, err := ev.Decode()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDecode)
}

func TestBadgeCount(t *testing.T) {
	ev := Event{
		Name: EventChatMessage,
		Data: json.RawMessage(`"{\"id\":\"m1\",\"sender\":{\"identity\":{\"badges\":[{\"type\":\"subscriber\",\"text\":\"Subscriber\",\"count\":14},{\"type\":\"moderator\",\"text\":\"Moderator\"}]}}}"`),
	}

	var msg ChatMessageEvent
	require.NoError(t, ev.UnmarshalData(&msg))
	require.Len(t, msg.Sender.Identity.Badges, 2)

	sub, mod := msg.Sender.Identity.Badges[0], msg.Sender.Identity.Badges[1]
	require.NotNil(t, sub.Count)
	require.Equal(t, 14, *sub.Count)
	require.Nil(t, mod.Count)
}
