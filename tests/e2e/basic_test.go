package e2e_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/questnet"
	"github.com/luciancaetano/questnet/ws"
)

func TestBasicEcho(t *testing.T) {
	t.Parallel()

	server := startServer(t, ws.FormatJSON, func(server questnet.Server) {
		server.OnConnect(func(conn questnet.Connection) {
			conn.OnMessage(func(msg questnet.Message) {
				conn.Send(msg)
			})
		})
	})

	conn := dial(t, server)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","text":"Hello!"}`)); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	messageType, data := readFrame(t, conn)
	if messageType != websocket.TextMessage {
		t.Errorf("frame type = %d, want text", messageType)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"type": "chat", "text": "Hello!"}, got); diff != "" {
		t.Errorf("echo mismatch (-want +got):\n%s", diff)
	}
}

func TestCBORBroadcast(t *testing.T) {
	t.Parallel()

	server := startServer(t, ws.FormatCBOR, nil)

	clients := []*websocket.Conn{dial(t, server), dial(t, server), dial(t, server)}
	waitForCount(t, server, len(clients))

	server.Broadcast(map[string]any{"type": "welcome"})

	for i, client := range clients {
		messageType, data := readFrame(t, client)
		if messageType != websocket.BinaryMessage {
			t.Errorf("client %d frame type = %d, want binary", i, messageType)
		}

		var got map[string]any
		if err := cbor.Unmarshal(data, &got); err != nil {
			t.Fatalf("client %d failed to decode: %v", i, err)
		}
		if got["type"] != "welcome" {
			t.Errorf("client %d got %v, want welcome", i, got)
		}
	}
}

func TestStatusPath(t *testing.T) {
	t.Parallel()

	server := startServer(t, ws.FormatJSON, func(server questnet.Server) {
		server.OnStatusRequest(func() string {
			return "0 players online"
		})
	})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/status", wantCode: http.StatusOK, wantBody: "0 players online"},
		{path: "/client/", wantCode: http.StatusNotFound},
		{path: "/", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		resp, err := http.Get("http://" + server.Addr() + tt.path)
		if err != nil {
			t.Fatalf("GET %s error = %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != tt.wantCode {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantCode)
		}
		if string(body) != tt.wantBody {
			t.Errorf("GET %s body = %q, want %q", tt.path, body, tt.wantBody)
		}
	}
}

func TestInvalidMessageCloses(t *testing.T) {
	t.Parallel()

	closed := make(chan struct{})
	server := startServer(t, ws.FormatJSON, func(server questnet.Server) {
		server.OnConnect(func(conn questnet.Connection) {
			conn.OnClose(func() { close(closed) })
		})
	})

	conn := dial(t, server)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("read error = %v, want close frame", err)
	}
	if closeErr.Code != websocket.CloseUnsupportedData || closeErr.Text != questnet.ReasonInvalidMessage {
		t.Errorf("close = %d %q, want %d %q", closeErr.Code, closeErr.Text, websocket.CloseUnsupportedData, questnet.ReasonInvalidMessage)
	}

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("OnClose was not called")
	}
}

func TestManyClientsBroadcast(t *testing.T) {
	t.Parallel()

	const numClients = 50

	server := startServer(t, ws.FormatJSON, func(server questnet.Server) {
		server.OnConnect(func(conn questnet.Connection) {
			conn.OnMessage(func(msg questnet.Message) {
				conn.Broadcast(msg)
			})
		})
	})

	clients := make([]*websocket.Conn, numClients)
	for i := range clients {
		clients[i] = dial(t, server)
	}

	waitForCount(t, server, numClients)

	if err := clients[0].WriteJSON(map[string]any{"type": "chat", "text": "hello everyone"}); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, numClients)
	for _, client := range clients {
		wg.Add(1)
		go func(client *websocket.Conn) {
			defer wg.Done()

			client.SetReadDeadline(time.Now().Add(5 * time.Second))
			var msg map[string]any
			if err := client.ReadJSON(&msg); err != nil {
				errs <- err
				return
			}
			if msg["text"] != "hello everyone" {
				errs <- errors.New("unexpected broadcast payload")
			}
		}(client)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("client did not receive broadcast: %v", err)
	}
}
