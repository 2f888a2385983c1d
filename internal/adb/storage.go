package adb

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// DiskStats reads per-package storage statistics from `dumpsys diskstats`.
// Only devices with Capabilities.StorageStats get one.
type DiskStats struct {
	c *Client
}

// QueryStats returns app, data and cache bytes for name. It fails when the
// device has not collected statistics for the package yet.
func (d *DiskStats) QueryStats(ctx context.Context, name string) (inventory.StorageStats, error) {
	out, err := d.c.Shell(ctx, "dumpsys", "diskstats")
	if err != nil {
		return inventory.StorageStats{}, fmt.Errorf("dumpsys diskstats failed: %w", err)
	}
	table, err := parseDiskStats(string(out))
	if err != nil {
		return inventory.StorageStats{}, err
	}
	stats, ok := table[name]
	if !ok {
		return inventory.StorageStats{}, fmt.Errorf("no storage stats for %s", name)
	}
	return stats, nil
}

// parseDiskStats parses the parallel JSON arrays at the end of diskstats
// output:
//
//	Package Names: ["com.a","com.b"]
//	App Sizes: [1024,2048]
//	App Data Sizes: [10,20]
//	Cache Sizes: [1,2]
func parseDiskStats(output string) (map[string]inventory.StorageStats, error) {
	var names []string
	var apps, data, caches []int64
	var haveNames, haveAppSizes bool

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		var err error
		switch strings.TrimSpace(key) {
		case "Package Names":
			err = json.Unmarshal([]byte(value), &names)
			haveNames = err == nil
		case "App Sizes":
			err = json.Unmarshal([]byte(value), &apps)
			haveAppSizes = err == nil
		case "App Data Sizes":
			err = json.Unmarshal([]byte(value), &data)
		case "Cache Sizes":
			err = json.Unmarshal([]byte(value), &caches)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse diskstats %q: %w", strings.TrimSpace(key), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diskstats: %w", err)
	}
	if !haveNames || !haveAppSizes {
		return nil, fmt.Errorf("diskstats has no per-package sizes")
	}

	at := func(values []int64, i int) int64 {
		if i < len(values) {
			return values[i]
		}
		return 0
	}

	table := make(map[string]inventory.StorageStats, len(names))
	for i, name := range names {
		if i >= len(apps) {
			break
		}
		table[name] = inventory.StorageStats{
			AppBytes:   at(apps, i),
			DataBytes:  at(data, i),
			CacheBytes: at(caches, i),
		}
	}
	return table, nil
}

// FileSizer stats files on the device.
type FileSizer struct {
	c *Client
}

// FileSize returns the size in bytes of path.
func (f *FileSizer) FileSize(ctx context.Context, path string) (int64, error) {
	if !validDevicePath(path) {
		return 0, fmt.Errorf("invalid device path %q", path)
	}
	out, err := f.c.Shell(ctx, "stat", "-c", "%s", path)
	if err != nil {
		return 0, fmt.Errorf("stat %s failed: %w", path, err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse size of %s: %w", path, err)
	}
	return size, nil
}
