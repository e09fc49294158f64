package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig configures the optional measure unit cache. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"keyprefix"`
	TTL       time.Duration `koanf:"ttl"`
	Timeout   time.Duration `koanf:"timeout"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// String returns a string representation of the Redis configuration. The password is masked.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  password: %s\n", mask(c.Password)))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  keyprefix: %s\n", c.KeyPrefix))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must not be negative: %d", c.DB)
	}
	if c.TTL < 0 {
		return fmt.Errorf("redis ttl must not be negative: %s", c.TTL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis timeout is not configured")
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
