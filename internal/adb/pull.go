package adb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// apkStore tracks APKs pulled to a host temp directory, one file per
// package, so the label and the icon of a package share a single copy.
type apkStore struct {
	mu    sync.Mutex
	dir   string
	files map[string]*localAPK
	holds int
}

type localAPK struct {
	path    string
	badging *badging
}

func (s *apkStore) pathOf(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.files[name]
	if !ok {
		return "", false
	}
	return a.path, true
}

func (s *apkStore) badgingOf(name string) (badging, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.files[name]
	if !ok || a.badging == nil {
		return badging{}, false
	}
	return *a.badging, true
}

// reserve creates an empty host file for name's APK, creating the directory
// on first use.
func (s *apkStore) reserve(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir == "" {
		dir, err := os.MkdirTemp("", "appsize-apks-")
		if err != nil {
			return "", fmt.Errorf("failed to create apk directory: %w", err)
		}
		s.dir = dir
		s.files = make(map[string]*localAPK)
	}
	f, err := os.CreateTemp(s.dir, name+"-*.apk")
	if err != nil {
		return "", fmt.Errorf("failed to create apk file: %w", err)
	}
	f.Close()
	return f.Name(), nil
}

func (s *apkStore) put(name string, a *localAPK) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files != nil {
		s.files[name] = a
	}
}

func (s *apkStore) setBadging(name string, b badging) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.files[name]; ok {
		a.badging = &b
	}
}

func (s *apkStore) retain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds++
}

// release drops one hold and removes the pulled copies with the last one.
func (s *apkStore) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.holds > 0 {
		s.holds--
	}
	if s.holds > 0 {
		return nil
	}
	return s.removeLocked()
}

func (s *apkStore) removeLocked() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir, s.files = "", nil
	if err != nil {
		return fmt.Errorf("failed to remove pulled apks: %w", err)
	}
	return nil
}

// pullAPK copies the base APK of pkg to the host with `adb pull` and returns
// the local path. A package already pulled is not pulled again.
func (c *Client) pullAPK(ctx context.Context, pkg inventory.Package) (string, error) {
	if !ValidPackageName(pkg.Name) {
		return "", fmt.Errorf("invalid package name %q", pkg.Name)
	}
	if local, ok := c.apks.pathOf(pkg.Name); ok {
		return local, nil
	}

	remote, err := c.apkPath(ctx, pkg)
	if err != nil {
		return "", err
	}
	local, err := c.apks.reserve(pkg.Name)
	if err != nil {
		return "", err
	}
	if _, err := c.exec(ctx, c.pullTimeout(), c.Path, c.adbArgs("pull", remote, local)...); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("failed to pull %s: %w", remote, err)
	}
	c.apks.put(pkg.Name, &localAPK{path: local})
	return local, nil
}

// apkPath is the device path of pkg's base APK.
func (c *Client) apkPath(ctx context.Context, pkg inventory.Package) (string, error) {
	apk := pkg.SourceDir
	if apk == "" {
		out, err := c.Shell(ctx, "pm", "path", pkg.Name)
		if err != nil {
			return "", fmt.Errorf("pm path %s failed: %w", pkg.Name, err)
		}
		apk = parsePackagePath(string(out))
	}
	if !validDevicePath(apk) {
		return "", fmt.Errorf("invalid apk path %q for %s", apk, pkg.Name)
	}
	return apk, nil
}

// parsePackagePath returns the first "package:<path>" line of `pm path`,
// which is the base APK for split installs.
func parsePackagePath(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if p, ok := strings.CutPrefix(strings.TrimSpace(line), "package:"); ok {
			return p
		}
	}
	return ""
}

// ReleaseAPKs deletes every APK pulled to the host, whatever listings still
// hold them. Later calls pull again.
func (c *Client) ReleaseAPKs() error {
	c.apks.mu.Lock()
	defer c.apks.mu.Unlock()
	c.apks.holds = 0
	return c.apks.removeLocked()
}
