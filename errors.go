package questnet

import (
	"errors"
	"fmt"
)

var (
	ErrServerAlreadyRunning = errors.New("server already running")
	ErrUnknownFormat        = errors.New("unknown message format")
	ErrMessageTooLarge      = errors.New("message exceeds maximum size")
)

// Close reasons sent to clients in the close frame.
const (
	ReasonInvalidMessage       = "Invalid message format"
	ReasonInvalidBinaryMessage = "Invalid binary message format"
	ReasonRateLimited          = "Rate limit exceeded"
	ReasonSendBufferFull       = "Send buffer full"
	ReasonServerShutdown       = "Server shutting down"
)

// DecodeError reports an inbound frame that does not match the grammar of
// the configured format. It is local to one connection and always closes it.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s message: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError reports a listener-level failure. It does not imply that
// any individual connection was affected.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SocketError reports a failure of one connection's underlying socket. It is
// handled exactly like a graceful close.
type SocketError struct {
	ConnectionID string
	Err          error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s: %v", e.ConnectionID, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }
