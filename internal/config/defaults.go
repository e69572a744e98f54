package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration fields.
const (
	DefaultPort              = 8000
	DefaultStatusPath        = "/status"
	DefaultEncoding          = "json"
	DefaultMaxMessageSize    = 10 * 1024 * 1024
	DefaultSendBuffer        = 256
	DefaultRateLimitEnabled  = true
	DefaultMessagesPerSecond = 100
	DefaultBurst             = 200
	DefaultPingInterval      = 54 * time.Second
	DefaultReadTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultStatusCacheTTL    = 0
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 28
)

// Every key needs a default so that AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("instance_id", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.status_path", DefaultStatusPath)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("protocol.encoding", DefaultEncoding)
	v.SetDefault("protocol.max_message_size", DefaultMaxMessageSize)
	v.SetDefault("protocol.send_buffer", DefaultSendBuffer)

	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.messages_per_second", DefaultMessagesPerSecond)
	v.SetDefault("rate_limit.burst", DefaultBurst)

	v.SetDefault("keepalive.ping_interval", DefaultPingInterval)
	v.SetDefault("keepalive.read_timeout", DefaultReadTimeout)
	v.SetDefault("keepalive.write_timeout", DefaultWriteTimeout)

	v.SetDefault("status.cache_ttl", time.Duration(DefaultStatusCacheTTL))

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("logging.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.max_age_days", DefaultLogMaxAgeDays)
}
