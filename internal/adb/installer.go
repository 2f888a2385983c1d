package adb

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// NewInstallerLookup picks the installer query for the device. Android 11
// and later record install source info per package; older releases only
// expose the legacy installer name.
func NewInstallerLookup(c *Client, caps Capabilities) inventory.InstallerLookup {
	if caps.InstallSourceInfo() {
		return &installSourceLookup{c: c}
	}
	return &legacyInstallerLookup{c: c}
}

// installSourceLookup reads the installing package from the package's
// install source record in `dumpsys package`.
type installSourceLookup struct {
	c *Client
}

func (l *installSourceLookup) InstallerOf(ctx context.Context, name string) (string, error) {
	if !ValidPackageName(name) {
		return "", fmt.Errorf("invalid package name %q", name)
	}
	out, err := l.c.Shell(ctx, "dumpsys", "package", name)
	if err != nil {
		return "", fmt.Errorf("dumpsys package %s failed: %w", name, err)
	}
	return parseInstallSource(string(out)), nil
}

// legacyInstallerLookup uses `pm list packages -i`.
type legacyInstallerLookup struct {
	c *Client
}

func (l *legacyInstallerLookup) InstallerOf(ctx context.Context, name string) (string, error) {
	if !ValidPackageName(name) {
		return "", fmt.Errorf("invalid package name %q", name)
	}
	out, err := l.c.Shell(ctx, "pm", "list", "packages", "-i", name)
	if err != nil {
		return "", fmt.Errorf("pm list packages -i %s failed: %w", name, err)
	}
	installer, ok := parseInstallerList(string(out), name)
	if !ok {
		return "", fmt.Errorf("package %s not found", name)
	}
	return installer, nil
}

// parseInstallSource extracts the installing package from dumpsys output.
// Newer releases print installerPackageName for the package's install source;
// "null" means none.
func parseInstallSource(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "installerPackageName=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "null" {
			return ""
		}
		return value
	}
	return ""
}

// parseInstallerList parses `pm list packages -i` lines of the form
// "package:<name>  installer=<installer>". pm filters by substring, so the
// exact name has to be matched here.
func parseInstallerList(output, name string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "package:"+name {
			continue
		}
		for _, f := range fields[1:] {
			if installer, ok := strings.CutPrefix(f, "installer="); ok {
				if installer == "null" {
					return "", true
				}
				return installer, true
			}
		}
		return "", true
	}
	return "", false
}
