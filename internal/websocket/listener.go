package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/questnet"
)

// ServeHTTP routes plain HTTP requests by path and upgrades WebSocket
// requests on any path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}

	if r.URL.Path == s.statusPath {
		s.handleStatus(w, r)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

// handleWebSocket accepts one socket: wrap, announce, register, then read.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.isStopping() {
		http.Error(w, questnet.ReasonServerShutdown, http.StatusServiceUnavailable)
		return
	}

	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		s.logger.WithError(err).WithField("remote_addr", r.RemoteAddr).Warn("websocket upgrade failed")
		return
	}

	conn := newConnection(s.nextID(), sock, r.RemoteAddr, s, s.connOpts)
	conn.logger.Info("connection accepted")

	// Handlers go in before the connection can see a broadcast.
	if callback := s.connectCallback(); callback != nil {
		callback(conn)
	}

	if !s.register(conn) {
		conn.closeWithCode(websocket.CloseGoingAway, questnet.ReasonServerShutdown)
	}

	go conn.run()
}
