// Package questnet provides the connection management layer of a multiplayer
// game server.
//
// It sits between raw WebSocket sockets and the game logic: it assigns an
// identity to each accepted socket, tracks live connections in a registry,
// encodes and decodes messages with a process-wide codec, and exposes
// per-connection send and server-wide broadcast primitives.
//
// # Architecture
//
// A Server owns one HTTP listener. Plain HTTP requests are answered by the
// status endpoint; WebSocket upgrade requests on any path become Connections.
// Every Connection gets a fresh identifier, is announced through the
// OnConnect callback, is then registered, and is read frame by frame. Decoded messages are
// handed to the Connection's OnMessage callback.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/questnet"
//	    "github.com/luciancaetano/questnet/ws"
//	)
//
//	cfg := ws.NewConfig(":8000", ws.FormatJSON)
//	server, err := ws.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server.OnStatusRequest(func() string {
//	    return fmt.Sprintf("%d players online", server.ConnectionCount())
//	})
//
//	server.OnConnect(func(conn questnet.Connection) {
//	    conn.Send(map[string]any{"type": "welcome", "id": conn.ID()})
//	    conn.OnMessage(func(msg questnet.Message) {
//	        conn.Broadcast(msg)
//	    })
//	    conn.OnClose(func() {
//	        log.Printf("connection %s closed", conn.ID())
//	    })
//	})
//
//	server.Start(ctx)
//
// # Wire Format
//
// Each WebSocket frame carries exactly one message. The encoding is chosen
// once at startup and applies to every connection:
//
//   - FormatJSON: textual JSON, sent as text frames.
//   - FormatCBOR: binary CBOR (RFC 8949, core deterministic encoding), sent
//     as binary frames.
//
// Inbound text and binary frames are both decoded with the active encoding.
// A frame that fails to decode closes its connection with close code 1003.
//
// # Connection Lifecycle
//
// A connection is OPEN until its socket closes, its socket fails, an inbound
// frame fails to decode, or it exceeds its inbound rate limit. On the
// transition to CLOSED the OnClose callback fires exactly once and the
// connection is removed from the registry exactly once.
//
// # Important
//
//   - Send never blocks and never fails; messages to closed connections are
//     dropped.
//   - A client that cannot keep up with its outbound buffer is disconnected.
//   - Configure origin checking in production.
package questnet
