package adb

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// PackageManager enumerates packages with pm.
type PackageManager struct {
	c *Client
}

// InstalledPackages lists all packages for the current user. When an aapt
// binary is configured each APK is also pulled to read its label; the copy
// stays on the host for the icon until Release.
func (pm *PackageManager) InstalledPackages(ctx context.Context) ([]inventory.Package, error) {
	packages, err := pm.c.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	if pm.c.AaptPath == "" {
		return packages, nil
	}
	for i := range packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b, err := pm.c.badging(ctx, packages[i]); err == nil {
			packages[i].Label = b.Label
		}
	}
	return packages, nil
}

// Retain keeps pulled APKs on the host until the matching Release.
func (pm *PackageManager) Retain() { pm.c.apks.retain() }

// Release deletes the pulled APKs once no listing holds them.
func (pm *PackageManager) Release() error { return pm.c.apks.release() }

// ListPackages lists package names and APK paths without touching the APKs.
// System packages are flagged from a second `pm list packages -s` call.
func (c *Client) ListPackages(ctx context.Context) ([]inventory.Package, error) {
	out, err := c.Shell(ctx, "pm", "list", "packages", "-f")
	if err != nil {
		return nil, fmt.Errorf("pm list packages failed: %w", err)
	}
	packages := parsePackageList(string(out))

	sysOut, err := c.Shell(ctx, "pm", "list", "packages", "-s")
	if err != nil {
		return nil, fmt.Errorf("pm list system packages failed: %w", err)
	}
	system := make(map[string]bool)
	for _, p := range parsePackageList(string(sysOut)) {
		system[p.Name] = true
	}

	for i := range packages {
		packages[i].System = system[packages[i].Name]
	}
	return packages, nil
}

// HasLaunchEntry resolves the launcher activity of name.
func (pm *PackageManager) HasLaunchEntry(ctx context.Context, name string) bool {
	if !ValidPackageName(name) {
		return false
	}
	out, err := pm.c.Shell(ctx, "cmd", "package", "resolve-activity", "--brief",
		"-c", "android.intent.category.LAUNCHER", name)
	if err != nil {
		return false
	}
	return parseResolveActivity(string(out), name)
}

// parsePackageList parses `pm list packages [-f]` output. With -f each line is
// "package:<apk path>=<name>"; the path may itself contain '='.
func parsePackageList(output string) []inventory.Package {
	var packages []inventory.Package
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rest, ok := strings.CutPrefix(line, "package:")
		if !ok || rest == "" {
			continue
		}

		pkg := inventory.Package{Name: rest}
		if idx := strings.LastIndexByte(rest, '='); idx > 0 {
			pkg.SourceDir = rest[:idx]
			pkg.Name = rest[idx+1:]
		}
		if pkg.Name == "" {
			continue
		}
		packages = append(packages, pkg)
	}
	return packages
}

// parseResolveActivity reports whether `cmd package resolve-activity --brief`
// resolved a component of name. The component is printed on the last line as
// "<package>/<activity>"; otherwise the output is "No activity found".
func parseResolveActivity(output, name string) bool {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.HasPrefix(last, name+"/")
}
