package archive

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"kickfeed/internal/kick"

	"github.com/google/uuid"
)

// EventSource is the slice of the relay client the archiver consumes.
// A single goroutine calls Next; the client requires that discipline.
type EventSource interface {
	Next(ctx context.Context) (*kick.Event, error)
	Close() error
}

// Publisher fans an archived message out to a broker (Redis pub/sub,
// Kafka). Publish failures are logged, not retried.
type Publisher interface {
	Publish(ctx context.Context, chatroomID int64, payload []byte) error
}

// StateStore records chatroom moderation state alongside the archive.
type StateStore interface {
	RecordBan(ctx context.Context, chatroomID int64, ev *kick.UserBannedEvent) error
	RecordUnban(ctx context.Context, chatroomID int64, ev *kick.UserUnbannedEvent) error
	RecordSettings(ctx context.Context, ev *kick.ChatroomUpdatedEvent) error
}

// Service drains one relay client and persists what it sees. It applies
// no recovery policy of its own: when the stream ends or breaks, Run
// returns and the caller decides what happens next.
type Service struct {
	source     EventSource
	repo       MessageRepository
	state      StateStore
	publishers []Publisher
}

func NewService(source EventSource, repo MessageRepository, state StateStore, publishers ...Publisher) *Service {
	return &Service{
		source:     source,
		repo:       repo,
		state:      state,
		publishers: publishers,
	}
}

// Run consumes events until the stream closes, ctx is cancelled, or the
// connection fails. A clean close returns nil.
func (s *Service) Run(ctx context.Context) error {
	for {
		ev, err := s.source.Next(ctx)
		if err != nil {
			if errors.Is(err, kick.ErrStreamClosed) {
				slog.Info("Relay stream closed")
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := s.handleEvent(ctx, ev); err != nil {
			slog.Error("Failed to handle event", "event", ev.Name, "channel", ev.Channel, "error", err)
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, ev *kick.Event) error {
	decoded, err := ev.Decode()
	if err != nil {
		// A bad payload in one event does not invalidate the stream.
		slog.Warn("Undecodable event payload", "event", ev.Name, "error", err)
		return nil
	}

	chatroomID, _ := kick.ChatroomFromChannel(ev.Channel)

	switch v := decoded.(type) {
	case *kick.ChatMessageEvent:
		return s.archiveMessage(ctx, v)

	case *kick.DeletedMessageEvent:
		slog.Debug("Message deleted", "messageId", v.Message.ID, "aiModerated", v.AIModerated)
		return s.repo.MarkDeleted(ctx, v.Message.ID, v.AIModerated)

	case *kick.ChatroomClearEvent:
		slog.Info("Chatroom cleared", "chatroomId", chatroomID)
		if chatroomID == 0 {
			return nil
		}
		return s.repo.ClearChatroom(ctx, chatroomID)

	case *kick.UserBannedEvent:
		if s.state == nil {
			return nil
		}
		return s.state.RecordBan(ctx, chatroomID, v)

	case *kick.UserUnbannedEvent:
		if s.state == nil {
			return nil
		}
		return s.state.RecordUnban(ctx, chatroomID, v)

	case *kick.ChatroomUpdatedEvent:
		if s.state == nil {
			return nil
		}
		return s.state.RecordSettings(ctx, v)

	case *kick.ConnectionEstablishedEvent:
		slog.Info("Relay connection established", "socketId", v.SocketID, "activityTimeout", v.ActivityTimeout)
		return nil

	case *kick.SubscriptionSucceededEvent:
		slog.Info("Chatroom subscription confirmed", "channel", ev.Channel)
		return nil

	case *kick.PongEvent, *kick.PollUpdateEvent, *kick.PollDeleteEvent:
		return nil

	default:
		slog.Debug("Ignoring unknown event", "event", ev.Name)
		return nil
	}
}

func (s *Service) archiveMessage(ctx context.Context, ev *kick.ChatMessageEvent) error {
	msg := &Message{
		ID:             ev.ID,
		ChatroomID:     ev.ChatroomID,
		SenderID:       ev.Sender.ID,
		SenderUsername: ev.Sender.Username,
		Content:        ev.Content,
		Type:           ev.Type,
		PostedAt:       parsePostedAt(ev.CreatedAt),
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return err
	}

	payload, err := json.Marshal(msg.ToResponse())
	if err != nil {
		return err
	}
	for _, pub := range s.publishers {
		if err := pub.Publish(ctx, msg.ChatroomID, payload); err != nil {
			slog.Error("Failed to publish archived message", "messageId", msg.ID, "error", err)
		}
	}

	slog.Debug("Message archived", "messageId", msg.ID, "chatroomId", msg.ChatroomID, "sender", msg.SenderUsername)
	return nil
}

func parsePostedAt(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Now().UTC()
}
