package ws

import (
	"net/http"
	"strings"

	"github.com/luciancaetano/questnet"
	"github.com/luciancaetano/questnet/internal/codec"
	"github.com/luciancaetano/questnet/internal/websocket"
)

type RateLimitConfig = websocket.RateLimitConfig
type KeepaliveConfig = websocket.KeepaliveConfig
type CheckOriginFn = websocket.CheckOriginFn
type ServerConfig = *websocket.ServerConfig
type Format = codec.Format

const (
	FormatJSON = codec.FormatJSON
	FormatCBOR = codec.FormatCBOR
)

// New creates a new WebSocket server from cfg.
//
// Example:
//
//	server, err := ws.New(ws.NewConfig(":8000", ws.FormatJSON))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.OnConnect(func(conn questnet.Connection) {
//	    log.Printf("Client connected: %s", conn.ID())
//	})
func New(cfg ServerConfig) (questnet.Server, error) {
	server, err := websocket.New(cfg)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// NewConfig returns a configuration with default limits for addr and format.
// The returned value may be adjusted before it is passed to New.
func NewConfig(addr string, format Format) ServerConfig {
	return &websocket.ServerConfig{
		Addr:            addr,
		Format:          format,
		RateLimitConfig: websocket.DefaultRateLimitConfig(),
		Keepalive:       websocket.DefaultKeepaliveConfig(),
	}
}

// ParseFormat parses "json" or "cbor".
func ParseFormat(name string) (Format, error) {
	return codec.ParseFormat(name)
}

// AllOrigins returns a checkOrigin function that allows all origins
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool {
		return true
	}
}

// AllowedOrigins returns a checkOrigin function accepting requests whose
// Origin header matches one of origins (e.g. "https://play.example.com").
// Requests without an Origin header come from non-browser clients and are
// accepted. With no origins every request is accepted.
func AllowedOrigins(origins ...string) CheckOriginFn {
	if len(origins) == 0 {
		return AllOrigins()
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return websocket.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return websocket.NoRateLimit()
}

// DefaultKeepaliveConfig returns the default ping/pong timings
func DefaultKeepaliveConfig() *KeepaliveConfig {
	return websocket.DefaultKeepaliveConfig()
}
