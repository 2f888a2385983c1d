// Package adb implements the inventory providers for an Android device
// reached through the adb command-line tool.
//
// Every provider shells out on each call. The one exception is APKs pulled
// to the host for labels and icons: each is copied once and kept until
// ReleaseAPKs.
package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single adb invocation.
	DefaultTimeout = 30 * time.Second
	// DefaultPullTimeout bounds copying one APK to the host. Game APKs run
	// to several gigabytes.
	DefaultPullTimeout = 10 * time.Minute
)

// Runner executes a host command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("%s %s failed: %w (stderr: %s)",
				name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return output, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// Client runs adb commands against one device.
type Client struct {
	// Path is the adb binary, "adb" by default.
	Path string
	// Serial selects the device when more than one is attached.
	Serial string
	// AaptPath is an optional host aapt binary used to read labels and icon
	// paths from APKs.
	AaptPath string
	// Timeout bounds each command. Zero means DefaultTimeout.
	Timeout time.Duration
	// PullTimeout bounds each APK pull. Zero means DefaultPullTimeout.
	PullTimeout time.Duration

	runner Runner
	apks   apkStore
}

// New creates a Client that executes the real adb binary.
func New(path, serial string) *Client {
	if path == "" {
		path = "adb"
	}
	return &Client{Path: path, Serial: serial, runner: execRunner{}}
}

// WithRunner replaces the command runner (useful for testing).
func (c *Client) WithRunner(r Runner) *Client {
	c.runner = r
	return c
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) pullTimeout() time.Duration {
	if c.PullTimeout > 0 {
		return c.PullTimeout
	}
	return DefaultPullTimeout
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.exec(ctx, c.timeout(), c.Path, c.adbArgs(args...)...)
}

// adbArgs prepends the device selector.
func (c *Client) adbArgs(args ...string) []string {
	if c.Serial == "" {
		return args
	}
	return append([]string{"-s", c.Serial}, args...)
}

// exec runs any host binary, adb or aapt, through the runner.
func (c *Client) exec(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runner := c.runner
	if runner == nil {
		runner = execRunner{}
	}
	return runner.Run(ctx, name, args...)
}

// Shell runs a command in the device shell.
func (c *Client) Shell(ctx context.Context, args ...string) ([]byte, error) {
	return c.run(ctx, append([]string{"shell"}, args...)...)
}

// State returns the device state reported by adb get-state, e.g. "device".
func (c *Client) State(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "get-state")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

var (
	packageNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)
	devicePathRe  = regexp.MustCompile(`^/[A-Za-z0-9/._~=+@-]*$`)
)

// ValidPackageName reports whether name is a well-formed Android package
// name. Only valid names are ever passed to the device shell.
func ValidPackageName(name string) bool {
	return packageNameRe.MatchString(name)
}

func validDevicePath(path string) bool {
	return devicePathRe.MatchString(path) && !strings.Contains(path, "..")
}
