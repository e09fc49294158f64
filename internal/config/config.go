package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/providerhub/pkg/config"
	"github.com/abgdnv/providerhub/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

const defaultMaxBodyBytes = 1 << 20

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Redis      config.RedisConfig      `koanf:"redis"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Reference  ReferenceConfig         `koanf:"reference"`
	Processing ProcessingConfig        `koanf:"processing"`
}

// ReferenceConfig controls how long a loaded catalog snapshot is used. A zero TTL keeps it for the process lifetime.
type ReferenceConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// ProcessingConfig holds the provider data processing switches.
type ProcessingConfig struct {
	// CreateMissing stores submissions for providers that have no record yet.
	CreateMissing bool  `koanf:"createmissing"`
	MaxBodyBytes  int64 `koanf:"maxbodybytes"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Redis.String())
	b.WriteString(c.Resilience.String())

	b.WriteString("\n--- Processing ---\n")
	b.WriteString(fmt.Sprintf("  reference.ttl: %s\n", c.Reference.TTL))
	b.WriteString(fmt.Sprintf("  processing.createmissing: %t\n", c.Processing.CreateMissing))
	b.WriteString(fmt.Sprintf("  processing.maxbodybytes: %d\n", c.Processing.MaxBodyBytes))

	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GRPC,
		&c.Database,
		&c.Log,
		&c.PProf,
		&c.Probes,
		&c.Nats,
		&c.Redis,
		&c.Telemetry,
		&c.Resilience,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	if c.Reference.TTL < 0 {
		return fmt.Errorf("reference ttl must not be negative: %s", c.Reference.TTL)
	}
	if c.Processing.MaxBodyBytes < 0 {
		return fmt.Errorf("processing max body bytes must not be negative: %d", c.Processing.MaxBodyBytes)
	}
	if c.Processing.MaxBodyBytes == 0 {
		c.Processing.MaxBodyBytes = defaultMaxBodyBytes
	}
	return nil
}
