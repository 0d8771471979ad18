package kick

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned by Next once the relay has closed the
// connection. It is terminal: every later call returns it again.
var ErrStreamClosed = errors.New("kick: stream closed")

// Kind classifies client errors so callers can tell a failed dial from a
// broken stream or a bad frame.
type Kind int

const (
	KindConnect Kind = iota + 1
	KindProtocol
	KindTransport
	KindDecode
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindProtocol:
		return "protocol"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error wraps an underlying failure with its Kind. Matching is by kind:
// errors.Is(err, kick.ErrTransport) reports whether err is any transport
// error, regardless of the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Kind sentinels for use with errors.Is.
var (
	ErrConnect   = &Error{Kind: KindConnect}
	ErrProtocol  = &Error{Kind: KindProtocol}
	ErrTransport = &Error{Kind: KindTransport}
	ErrDecode    = &Error{Kind: KindDecode}
	ErrTimeout   = &Error{Kind: KindTimeout}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Err != nil {
		return fmt.Sprintf("kick: %s: %v", msg, e.Err)
	}
	return "kick: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
