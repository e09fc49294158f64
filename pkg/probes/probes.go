// Package probes maintains the marker files used by exec based readiness and liveness probes.
package probes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// MarkReady creates the readiness file.
func MarkReady(path string) error {
	if err := touch(path); err != nil {
		return fmt.Errorf("failed to create readiness file: %w", err)
	}
	return nil
}

// MarkNotReady removes the readiness file. A missing file is not an error.
func MarkNotReady(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove readiness file: %w", err)
	}
	return nil
}

// RunLiveness touches the liveness file every interval until ctx is done, then removes it.
func RunLiveness(ctx context.Context, path string, interval time.Duration, logger *slog.Logger) error {
	if err := touch(path); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("Failed to remove liveness file", "path", path, "error", err)
			}
			return nil
		case <-ticker.C:
			if err := touch(path); err != nil {
				logger.Error("Failed to update liveness file", "path", path, "error", err)
			}
		}
	}
}

func touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
