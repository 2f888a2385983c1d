package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// API levels that change which platform queries are available.
const (
	sdkStorageStats      = 26 // Android 8.0
	sdkInstallSourceInfo = 30 // Android 11
)

// Capabilities describes what the connected device can answer.
type Capabilities struct {
	SDK int
}

// StorageStats reports whether the device keeps per-package storage
// statistics.
func (c Capabilities) StorageStats() bool {
	return c.SDK >= sdkStorageStats
}

// InstallSourceInfo reports whether the device records install source info
// beyond the legacy installer name.
func (c Capabilities) InstallSourceInfo() bool {
	return c.SDK >= sdkInstallSourceInfo
}

// ProbeCapabilities reads the device API level.
func (c *Client) ProbeCapabilities(ctx context.Context) (Capabilities, error) {
	out, err := c.Shell(ctx, "getprop", "ro.build.version.sdk")
	if err != nil {
		return Capabilities{}, fmt.Errorf("failed to read sdk level: %w", err)
	}
	sdk, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return Capabilities{}, fmt.Errorf("failed to parse sdk level %q: %w", strings.TrimSpace(string(out)), err)
	}
	return Capabilities{SDK: sdk}, nil
}
