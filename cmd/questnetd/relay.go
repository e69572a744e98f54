package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/luciancaetano/questnet"
)

// relay is the daemon's game logic: greet, fan out, announce departures.
type relay struct {
	server questnet.Server
	logger logrus.FieldLogger
}

func newRelay(server questnet.Server, logger logrus.FieldLogger) *relay {
	return &relay{server: server, logger: logger}
}

func (r *relay) attach() {
	r.server.OnConnect(r.handleConnect)
	r.server.OnStatusRequest(r.status)
}

func (r *relay) handleConnect(conn questnet.Connection) {
	id := conn.ID()
	log := r.logger.WithField("connection_id", id)

	conn.OnMessage(func(msg questnet.Message) {
		conn.Broadcast(map[string]any{
			"type": "relay",
			"from": id,
			"data": msg,
		})
	})
	conn.OnClose(func() {
		log.Debug("player left")
		r.server.Broadcast(map[string]any{"type": "left", "id": id})
	})

	conn.Send(map[string]any{"type": "welcome", "id": id})
	log.Debug("player joined")
}

func (r *relay) status() string {
	return fmt.Sprintf("%d players online", r.server.ConnectionCount())
}
