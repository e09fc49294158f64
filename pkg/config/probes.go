package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ProbesConfig names the marker files checked by exec based Kubernetes probes.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

const defaultLivenessInterval = 20 * time.Second

var (
	defaultReadinessFileName = filepath.Join("/tmp", "provider-ready")
	defaultLivenessFileName  = filepath.Join("/tmp", "provider-live")
)

// String returns a string representation of the ProbesConfig.
func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	b.WriteString(fmt.Sprintf("  readinessfilename: %s\n", c.ReadinessFileName))
	b.WriteString(fmt.Sprintf("  livenessfilename: %s\n", c.LivenessFileName))
	b.WriteString(fmt.Sprintf("  livenessinterval: %s\n", c.LivenessInterval))
	return b.String()
}

// Validate fills in the defaults for missing values.
func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		c.ReadinessFileName = defaultReadinessFileName
	}
	if c.LivenessFileName == "" {
		c.LivenessFileName = defaultLivenessFileName
	}
	if c.ReadinessFileName == c.LivenessFileName {
		return fmt.Errorf("readiness and liveness probes must use different files: %s", c.LivenessFileName)
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = defaultLivenessInterval
	}
	return nil
}
