// Package kick implements a WebSocket client for the Pusher-compatible
// relay that brokers Kick.com chatroom events. A Client owns a single
// connection, subscribes to one or more chatrooms at dial time, and hands
// decoded events to the caller one at a time.
package kick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

// DefaultEndpoint is the public relay endpoint Kick's web client speaks to.
const DefaultEndpoint = "wss://ws-us2.pusher.com/app/32cbd69e4b950bf97679?protocol=7&client=js&version=8.4.0-rc2&flash=false"

const (
	handshakeTimeout = 10 * time.Second

	// Time allowed to write a frame to the relay
	writeWait = 10 * time.Second
)

// State tracks the client lifecycle. Transitions only move forward:
// Connecting -> Subscribed -> Streaming -> Closed.
type State int32

const (
	StateConnecting State = iota
	StateSubscribed
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is a single-connection, single-consumer chatroom reader. Calls to
// Next must be serialized by the caller; the client does no internal
// locking around reads and never reconnects on its own.
type Client struct {
	endpoint  string
	chatrooms []int64
	conn      *websocket.Conn

	state atomic.Int32

	closeOnce sync.Once
	closeErr  error
}

// ChannelName derives the relay channel for a chatroom id.
func ChannelName(chatroomID int64) string {
	return fmt.Sprintf("chatrooms.%d.v2", chatroomID)
}

// ChatroomFromChannel recovers the chatroom id from a relay channel name.
func ChatroomFromChannel(channel string) (int64, bool) {
	var id int64
	if _, err := fmt.Sscanf(channel, "chatrooms.%d.v2", &id); err != nil {
		return 0, false
	}
	return id, true
}

type subscribeRequest struct {
	Event string        `json:"event"`
	Data  subscribeData `json:"data"`
}

type subscribeData struct {
	Auth    string `json:"auth"`
	Channel string `json:"channel"`
}

// Dial opens a WebSocket connection to endpoint and subscribes to every
// chatroom id. The returned client is ready for Next. A failed transport
// handshake yields ErrConnect; a failure while sending the subscription
// frames yields ErrProtocol.
func Dial(ctx context.Context, endpoint string, chatroomIDs ...int64) (*Client, error) {
	if len(chatroomIDs) == 0 {
		return nil, newError(KindProtocol, "no chatroom ids to subscribe", nil)
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, newError(KindConnect, "websocket handshake failed", err)
	}

	c := &Client{
		endpoint:  endpoint,
		chatrooms: chatroomIDs,
		conn:      conn,
	}

	for _, id := range chatroomIDs {
		frame, err := json.Marshal(subscribeRequest{
			Event: EventSubscribe,
			Data:  subscribeData{Auth: "", Channel: ChannelName(id)},
		})
		if err != nil {
			conn.Close()
			return nil, newError(KindProtocol, "encode subscribe frame", err)
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			conn.Close()
			return nil, newError(KindProtocol, "send subscribe frame", err)
		}
		slog.Debug("Subscribe frame sent", "channel", ChannelName(id))
	}

	c.state.Store(int32(StateSubscribed))
	slog.Info("Connected to chat relay", "endpoint", endpoint, "chatrooms", len(chatroomIDs))
	return c, nil
}

// Endpoint returns the relay URL the client dialed.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Chatrooms returns the chatroom ids subscribed at dial time.
func (c *Client) Chatrooms() []int64 {
	ids := make([]int64, len(c.chatrooms))
	copy(ids, c.chatrooms)
	return ids
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Next blocks until the relay delivers the next event, the connection
// closes, or ctx is done. Events surface in arrival order. Once the relay
// closes the connection Next returns ErrStreamClosed on this and every
// later call. Any transport or decode failure leaves the connection
// unusable; callers should discard the client after a non-nil error other
// than a protocol rejection.
func (c *Client) Next(ctx context.Context) (*Event, error) {
	for {
		if c.State() == StateClosed {
			return nil, c.terminalErr()
		}

		// Interrupt a blocked read when ctx is done by expiring the read
		// deadline. The read below then fails with a timeout error.
		stop := make(chan struct{})
		watched := make(chan struct{})
		go func() {
			defer close(watched)
			select {
			case <-ctx.Done():
				c.conn.SetReadDeadline(time.Now())
			case <-stop:
			}
		}()

		msgType, data, err := c.conn.ReadMessage()
		close(stop)
		<-watched

		if err != nil {
			return nil, c.readError(ctx, err)
		}
		if msgType != websocket.TextMessage {
			// The relay only speaks JSON text frames; anything else is
			// control noise gorilla did not already swallow.
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.shutdown(newError(KindDecode, "undecodable frame", err))
			return nil, c.terminalErr()
		}

		if ev.Name == EventError {
			perr := newError(KindProtocol, "relay error", ev.protocolError())
			c.shutdown(perr)
			return nil, perr
		}

		c.state.CompareAndSwap(int32(StateSubscribed), int32(StateStreaming))
		return &ev, nil
	}
}

// Close sends a close frame to the relay and tears the connection down.
// Pending and subsequent Next calls observe ErrStreamClosed.
func (c *Client) Close() error {
	c.shutdown(ErrStreamClosed)
	return nil
}

func (c *Client) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		// Caller abandoned the read; the connection cannot be reused
		// because a frame may be half-consumed.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.shutdown(newError(KindTimeout, "read deadline exceeded", ctx.Err()))
		} else {
			c.shutdown(ctx.Err())
		}
		return c.terminalErr()
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		c.shutdown(ErrStreamClosed)
		return c.terminalErr()
	}

	c.shutdown(newError(KindTransport, "read frame", err))
	return c.terminalErr()
}

// shutdown records the terminal error and closes the connection exactly
// once. The first caller wins; later errors are discarded.
func (c *Client) shutdown(terminal error) {
	c.closeOnce.Do(func() {
		c.closeErr = terminal
		c.state.Store(int32(StateClosed))

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing relay connection", "error", err)
		}
		slog.Debug("Relay connection closed", "endpoint", c.endpoint, "reason", terminal)
	})
}

func (c *Client) terminalErr() error {
	if c.closeErr == nil {
		return ErrStreamClosed
	}
	return c.closeErr
}
