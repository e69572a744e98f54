package e2e_test

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/luciancaetano/questnet"
	"github.com/luciancaetano/questnet/ws"
)

// Helper function to create a WebSocket dialer
func newDialer() *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
}

// startServer starts a server on an ephemeral port with the given encoding.
// setup runs before Start so callbacks are in place for the first connection.
func startServer(t *testing.T, format ws.Format, setup func(server questnet.Server)) questnet.Server {
	t.Helper()

	logger, _ := test.NewNullLogger()
	cfg := ws.NewConfig("127.0.0.1:0", format)
	cfg.RateLimitConfig = ws.NoRateLimit()
	cfg.Logger = logger

	server, err := ws.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if setup != nil {
		setup(server)
	}

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Stop(stopCtx)
	})
	return server
}

func dial(t *testing.T, server questnet.Server) *websocket.Conn {
	t.Helper()

	conn, _, err := newDialer().Dial("ws://"+server.Addr()+"/", nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForCount waits until n connections are registered
func waitForCount(t *testing.T, server questnet.Server, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for server.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ConnectionCount() = %d, want %d", server.ConnectionCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) (int, []byte) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	return messageType, data
}
