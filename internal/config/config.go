package config

import (
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/luciancaetano/questnet/internal/codec"
	"github.com/luciancaetano/questnet/internal/websocket"
	"github.com/luciancaetano/questnet/ws"
)

// Config is the complete daemon configuration.
type Config struct {
	// InstanceID identifies this process in logs and status responses.
	// A random UUID is generated when empty.
	InstanceID string          `mapstructure:"instance_id" yaml:"instance_id"`
	Server     ServerConfig    `mapstructure:"server" yaml:"server"`
	Protocol   ProtocolConfig  `mapstructure:"protocol" yaml:"protocol"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Keepalive  KeepaliveConfig `mapstructure:"keepalive" yaml:"keepalive"`
	Status     StatusConfig    `mapstructure:"status" yaml:"status"`
	Logging    LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// Plain HTTP path answered with the status text.
	StatusPath string `mapstructure:"status_path" yaml:"status_path"`
	// Origins allowed to open a WebSocket. Empty allows every origin.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type ProtocolConfig struct {
	// Wire encoding for every connection: json or cbor.
	Encoding       string `mapstructure:"encoding" yaml:"encoding"`
	MaxMessageSize int64  `mapstructure:"max_message_size" yaml:"max_message_size"`
	// Outbound messages queued per connection before it is dropped.
	SendBuffer int `mapstructure:"send_buffer" yaml:"send_buffer"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second" yaml:"messages_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

type KeepaliveConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type StatusConfig struct {
	// CacheTTL caches the status text; zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type LoggingConfig struct {
	// Minimum level: trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Output format: text or json.
	Format string `mapstructure:"format" yaml:"format"`
	// File receives the log instead of stdout when set. It is rotated once
	// it reaches MaxSizeMB.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Addr returns the listening address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Dump renders the effective configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// WebsocketConfig builds the server configuration. Call it on a validated
// Config.
func (c *Config) WebsocketConfig(logger logrus.FieldLogger) (*websocket.ServerConfig, error) {
	format, err := codec.ParseFormat(c.Protocol.Encoding)
	if err != nil {
		return nil, err
	}

	return &websocket.ServerConfig{
		Addr:           c.Addr(),
		StatusPath:     c.Server.StatusPath,
		Format:         format,
		MaxMessageSize: c.Protocol.MaxMessageSize,
		SendBufferSize: c.Protocol.SendBuffer,
		RateLimitConfig: &websocket.RateLimitConfig{
			MessagesPerSecond: rate.Limit(c.RateLimit.MessagesPerSecond),
			Burst:             c.RateLimit.Burst,
			Enabled:           c.RateLimit.Enabled,
		},
		Keepalive: &websocket.KeepaliveConfig{
			PingInterval: c.Keepalive.PingInterval,
			ReadTimeout:  c.Keepalive.ReadTimeout,
			WriteTimeout: c.Keepalive.WriteTimeout,
		},
		CheckOrigin:    ws.AllowedOrigins(c.Server.AllowedOrigins...),
		StatusCacheTTL: c.Status.CacheTTL,
		InstanceID:     c.InstanceID,
		Logger:         logger.WithField("instance_id", c.InstanceID),
	}, nil
}
