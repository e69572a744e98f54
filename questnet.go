package questnet

import "context"

// Message is a structured value exchanged with clients: nested maps, arrays
// and scalars as produced by the active codec.
//
// With the JSON encoding maps decode as map[string]any and numbers as
// float64. With the CBOR encoding maps decode as map[string]any, unsigned
// integers as uint64, negative integers as int64 and byte strings as []byte.
type Message = any

// Server defines the interface for the connection registry and its listener.
//
// A Server owns exactly one listening endpoint. Plain HTTP requests on that
// endpoint are answered by the status handler, WebSocket upgrade requests
// become Connections.
//
// Example usage:
//
//	import "github.com/luciancaetano/questnet/ws"
//
//	server, err := ws.New(ws.NewConfig(":8000", ws.FormatJSON))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server.OnConnect(func(conn questnet.Connection) {
//	    conn.OnMessage(func(msg questnet.Message) {
//	        conn.Broadcast(msg)
//	    })
//	})
//
//	server.Start(ctx)
type Server interface {
	// Start binds the listening endpoint and begins accepting connections.
	//
	// Returns an error if the server is already running or if the address
	// cannot be bound. Failures after a successful bind are reported to the
	// OnError callback.
	Start(ctx context.Context) error

	// Stop closes every registered connection and shuts the listener down.
	// Upgrades arriving after Stop are refused until the next Start. Stop
	// does not wait for the closed connections' OnClose callbacks.
	Stop(ctx context.Context) error

	// Addr returns the bound address once the server has started, or the
	// configured address otherwise.
	Addr() string

	// OnConnect installs the callback invoked for every accepted connection.
	//
	// The callback runs before the connection is registered and before its
	// first inbound frame is read, so handlers installed from inside it never
	// miss a message and broadcasts reach the connection only after it
	// returns.
	OnConnect(callback func(conn Connection))

	// OnError installs the callback for listener-level failures. Errors
	// passed to it are *TransportError values.
	OnError(callback func(err error))

	// OnStatusRequest installs the callback producing the body of the status
	// endpoint. Without it the status path answers 404.
	OnStatusRequest(callback func() string)

	// AddConnection registers conn under its ID.
	AddConnection(conn Connection)

	// RemoveConnection deregisters the connection with the given id.
	// Removing an unknown id is a no-op.
	RemoveConnection(id string)

	// GetConnection returns the registered connection with the given id.
	GetConnection(id string) (Connection, bool)

	// ForEachConnection applies callback to every registered connection.
	// Iteration order is unspecified.
	ForEachConnection(callback func(conn Connection))

	// ConnectionCount returns the number of registered connections.
	ConnectionCount() int

	// Broadcast sends msg to every connection registered at the moment of
	// iteration. Each connection encodes the message through its own Send.
	Broadcast(msg Message)
}

// Connection represents one accepted WebSocket client.
//
// The callbacks of a single connection never run concurrently with each
// other: OnMessage handlers run one at a time on the connection's read loop
// and OnClose runs last, exactly once.
type Connection interface {
	// ID returns the identifier assigned when the socket was accepted.
	ID() string

	// RemoteAddr returns the client's remote network address.
	RemoteAddr() string

	// Context returns the connection's lifecycle context. It is cancelled
	// as soon as the connection starts closing.
	Context() context.Context

	// Send encodes msg with the active codec and queues it for delivery.
	//
	// Send never blocks and never reports an error: when the connection is
	// no longer open the message is dropped silently, and the close path will
	// already have fired (or is about to fire) the OnClose callback.
	Send(msg Message)

	// Close logs the reason and requests termination of the socket. It
	// returns without waiting for teardown and may be called repeatedly.
	Close(reason string)

	// OnMessage installs the handler for decoded inbound messages,
	// replacing any previous handler.
	OnMessage(callback func(msg Message))

	// OnClose installs the handler invoked once when the connection closes,
	// replacing any previous handler.
	OnClose(callback func())

	// Broadcast delegates to the owning server's Broadcast.
	Broadcast(msg Message)

	// IsAlive reports whether the connection is still open.
	IsAlive() bool
}
