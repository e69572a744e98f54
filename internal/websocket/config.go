package websocket

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/questnet/internal/codec"
)

// DefaultStatusPath is the plain HTTP path answered by the status callback.
const DefaultStatusPath = "/status"

// DefaultSendBufferSize is the number of outbound messages queued per
// connection before it is dropped as a slow consumer.
const DefaultSendBufferSize = 256

// CheckOriginFn is a function that validates the origin of a WebSocket connection request.
// It receives the HTTP request and returns true if the origin is allowed, false otherwise.
type CheckOriginFn = func(r *http.Request) bool

// ServerConfig holds everything fixed at startup.
type ServerConfig struct {
	// Addr is the listening address, e.g. ":8000". Port 0 picks a free port.
	Addr string
	// StatusPath defaults to DefaultStatusPath.
	StatusPath string
	// Format selects the wire encoding for every connection.
	Format codec.Format
	// MaxMessageSize caps inbound frames and outbound messages. Zero uses
	// codec.DefaultMaxMessageSize.
	MaxMessageSize int64
	// SendBufferSize defaults to DefaultSendBufferSize.
	SendBufferSize int
	// RateLimitConfig defaults to DefaultRateLimitConfig().
	RateLimitConfig *RateLimitConfig
	// Keepalive defaults to DefaultKeepaliveConfig().
	Keepalive *KeepaliveConfig
	// CheckOrigin is passed to the upgrader. Nil applies the same-origin
	// policy of gorilla/websocket.
	CheckOrigin CheckOriginFn
	// StatusCacheTTL caches the status text for the given duration. Zero
	// calls the status callback on every request.
	StatusCacheTTL time.Duration
	// InstanceID is reported in the X-Questnet-Instance header of status
	// responses.
	InstanceID string
	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// RateLimitConfig defines rate limiting configuration for inbound messages
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages a connection can send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration
// Allows 100 messages per second with burst of 200
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

func (c *RateLimitConfig) newLimiter() *rate.Limiter {
	if c == nil || !c.Enabled {
		return nil
	}
	return rate.NewLimiter(c.MessagesPerSecond, c.Burst)
}

// KeepaliveConfig drives the ping/pong liveness check of each connection.
type KeepaliveConfig struct {
	// PingInterval must be shorter than ReadTimeout.
	PingInterval time.Duration
	// ReadTimeout closes a connection that sent neither a frame nor a pong.
	ReadTimeout time.Duration
	// WriteTimeout bounds every frame write.
	WriteTimeout time.Duration
}

// DefaultKeepaliveConfig pings every 54 seconds and gives up after 60
// seconds of silence.
func DefaultKeepaliveConfig() *KeepaliveConfig {
	return &KeepaliveConfig{
		PingInterval: 54 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (c *ServerConfig) applyDefaults() {
	if c.StatusPath == "" {
		c.StatusPath = DefaultStatusPath
	}
	if c.Format == "" {
		c.Format = codec.FormatJSON
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = codec.DefaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = DefaultSendBufferSize
	}
	if c.RateLimitConfig == nil {
		c.RateLimitConfig = DefaultRateLimitConfig()
	}
	if c.Keepalive == nil {
		c.Keepalive = DefaultKeepaliveConfig()
	}
	c.Keepalive.fillZero(DefaultKeepaliveConfig())
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
}

func (c *KeepaliveConfig) fillZero(def *KeepaliveConfig) {
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
}
