package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/luciancaetano/questnet/internal/codec"
)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.StatusPath, "/") {
		return fmt.Errorf("server.status_path must start with /, got %q", c.Server.StatusPath)
	}

	if _, err := codec.ParseFormat(c.Protocol.Encoding); err != nil {
		return fmt.Errorf("protocol.encoding: %w", err)
	}
	if c.Protocol.MaxMessageSize < 1 {
		return errors.New("protocol.max_message_size must be >= 1")
	}
	if c.Protocol.SendBuffer < 1 {
		return errors.New("protocol.send_buffer must be >= 1")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MessagesPerSecond <= 0 {
			return errors.New("rate_limit.messages_per_second must be > 0")
		}
		if c.RateLimit.Burst < 1 {
			return errors.New("rate_limit.burst must be >= 1")
		}
	}

	if c.Keepalive.PingInterval <= 0 || c.Keepalive.ReadTimeout <= 0 || c.Keepalive.WriteTimeout <= 0 {
		return errors.New("keepalive durations must be > 0")
	}
	if c.Keepalive.PingInterval >= c.Keepalive.ReadTimeout {
		return fmt.Errorf("keepalive.ping_interval (%s) must be shorter than keepalive.read_timeout (%s)",
			c.Keepalive.PingInterval, c.Keepalive.ReadTimeout)
	}

	if c.Status.CacheTTL < 0 {
		return errors.New("status.cache_ttl must be >= 0")
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB < 1 {
		return errors.New("logging.max_size_mb must be >= 1")
	}
	if c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging.max_backups and logging.max_age_days must be >= 0")
	}

	return nil
}
