package archive

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"kickfeed/internal/kick"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events []*kick.Event
	next   int
	err    error
}

func (f *fakeSource) Next(ctx context.Context) (*kick.Event, error) {
	if f.next >= len(f.events) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, kick.ErrStreamClosed
	}
	ev := f.events[f.next]
	f.next++
	return ev, nil
}

func (f *fakeSource) Close() error { return nil }

type fakeRepo struct {
	created []*Message
	deleted []string
	cleared []int64
}

func (f *fakeRepo) Create(ctx context.Context, msg *Message) error {
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeRepo) MarkDeleted(ctx context.Context, messageID string, aiModerated bool) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeRepo) ClearChatroom(ctx context.Context, chatroomID int64) error {
	f.cleared = append(f.cleared, chatroomID)
	return nil
}

func (f *fakeRepo) FindRecentByChatroom(ctx context.Context, chatroomID int64, limit int) ([]*Message, error) {
	return nil, nil
}

func (f *fakeRepo) CountByChatroom(ctx context.Context, chatroomID int64) (int64, error) {
	return int64(len(f.created)), nil
}

type fakePublisher struct {
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, chatroomID int64, payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeState struct {
	bans     []int64
	unbans   []int64
	settings []int64
}

func (f *fakeState) RecordBan(ctx context.Context, chatroomID int64, ev *kick.UserBannedEvent) error {
	f.bans = append(f.bans, ev.User.ID)
	return nil
}

func (f *fakeState) RecordUnban(ctx context.Context, chatroomID int64, ev *kick.UserUnbannedEvent) error {
	f.unbans = append(f.unbans, ev.User.ID)
	return nil
}

func (f *fakeState) RecordSettings(ctx context.Context, ev *kick.ChatroomUpdatedEvent) error {
	f.settings = append(f.settings, ev.ID)
	return nil
}

// relayEvent builds an envelope the way the relay encodes it, with the
// payload double-encoded as a JSON string.
func relayEvent(t *testing.T, name, channel string, payload any) *kick.Event {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	wrapped, err := json.Marshal(string(inner))
	require.NoError(t, err)
	return &kick.Event{Name: name, Channel: channel, Data: wrapped}
}

func chatEvent(t *testing.T, id, content string) *kick.Event {
	t.Helper()
	return relayEvent(t, kick.EventChatMessage, "chatrooms.42.v2", kick.ChatMessageEvent{
		ID:         id,
		ChatroomID: 42,
		Content:    content,
		Type:       "message",
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Sender:     kick.MessageSender{ID: 7, Username: "viewer", Slug: "viewer"},
	})
}

func TestRunArchivesChatMessages(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		chatEvent(t, "m1", "first"),
		chatEvent(t, "m2", "second"),
	}}
	repo := &fakeRepo{}
	pub := &fakePublisher{}

	svc := NewService(source, repo, nil, pub)
	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, repo.created, 2)
	require.Equal(t, "m1", repo.created[0].ID)
	require.Equal(t, "first", repo.created[0].Content)
	require.Equal(t, int64(42), repo.created[0].ChatroomID)
	require.Equal(t, "viewer", repo.created[0].SenderUsername)
	require.Equal(t, "m2", repo.created[1].ID)

	require.Len(t, pub.payloads, 2)
	var published MessageResponse
	require.NoError(t, json.Unmarshal(pub.payloads[0], &published))
	require.Equal(t, "m1", published.ID)
	require.Equal(t, "first", published.Content)
}

func TestRunMarksDeletedMessages(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		chatEvent(t, "m1", "soon gone"),
		relayEvent(t, kick.EventMessageDeleted, "chatrooms.42.v2", kick.DeletedMessageEvent{
			ID:          "d1",
			Message:     kick.DeletedMessage{ID: "m1"},
			AIModerated: true,
		}),
	}}
	repo := &fakeRepo{}

	svc := NewService(source, repo, nil)
	require.NoError(t, svc.Run(context.Background()))

	require.Equal(t, []string{"m1"}, repo.deleted)
}

func TestRunClearsChatroom(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		relayEvent(t, kick.EventChatroomClear, "chatrooms.42.v2", kick.ChatroomClearEvent{ID: "c1"}),
	}}
	repo := &fakeRepo{}

	svc := NewService(source, repo, nil)
	require.NoError(t, svc.Run(context.Background()))

	require.Equal(t, []int64{42}, repo.cleared)
}

func TestRunRecordsModerationState(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		relayEvent(t, kick.EventUserBanned, "chatrooms.42.v2", kick.UserBannedEvent{
			ID:        "b1",
			User:      kick.ChatUser{ID: 7, Username: "spammer"},
			BannedBy:  kick.ChatUser{ID: 1, Username: "mod"},
			Permanent: true,
		}),
		relayEvent(t, kick.EventUserUnbanned, "chatrooms.42.v2", kick.UserUnbannedEvent{
			ID:         "u1",
			User:       kick.ChatUser{ID: 7, Username: "spammer"},
			UnbannedBy: kick.ChatUser{ID: 1, Username: "mod"},
		}),
		relayEvent(t, kick.EventChatroomUpdated, "chatrooms.42.v2", kick.ChatroomUpdatedEvent{
			ID:       42,
			SlowMode: kick.SlowMode{Enabled: true, MessageInterval: 10},
		}),
	}}
	repo := &fakeRepo{}
	state := &fakeState{}

	svc := NewService(source, repo, state)
	require.NoError(t, svc.Run(context.Background()))

	require.Equal(t, []int64{7}, state.bans)
	require.Equal(t, []int64{7}, state.unbans)
	require.Equal(t, []int64{42}, state.settings)
}

func TestRunSkipsUndecodablePayloads(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		{Name: kick.EventChatMessage, Channel: "chatrooms.42.v2", Data: json.RawMessage(`"garbage"`)},
		chatEvent(t, "m1", "still here"),
	}}
	repo := &fakeRepo{}

	svc := NewService(source, repo, nil)
	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, repo.created, 1)
	require.Equal(t, "m1", repo.created[0].ID)
}

func TestRunPropagatesTransportErrors(t *testing.T) {
	transportErr := &kick.Error{Kind: kick.KindTransport, Msg: "read frame"}
	source := &fakeSource{err: transportErr}

	svc := NewService(source, &fakeRepo{}, nil)
	err := svc.Run(context.Background())
	require.ErrorIs(t, err, kick.ErrTransport)
}

func TestArchiveGeneratesIDWhenMissing(t *testing.T) {
	source := &fakeSource{events: []*kick.Event{
		relayEvent(t, kick.EventChatMessage, "chatrooms.42.v2", kick.ChatMessageEvent{
			ChatroomID: 42,
			Content:    "anonymous frame",
		}),
	}}
	repo := &fakeRepo{}

	svc := NewService(source, repo, nil)
	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, repo.created, 1)
	require.NotEmpty(t, repo.created[0].ID)
}
