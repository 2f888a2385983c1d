package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	actionDelete        = "android.intent.action.DELETE"
	flagActivityNewTask = "0x10000000"
)

// Uninstaller starts the platform uninstall confirmation through am.
type Uninstaller struct {
	c *Client
}

// DispatchUninstall starts ACTION_DELETE for package:<name> in a new task and
// returns as soon as the activity manager accepted it. The user's answer to
// the dialog is not observed.
func (u *Uninstaller) DispatchUninstall(ctx context.Context, name string) error {
	if !ValidPackageName(name) {
		return fmt.Errorf("malformed package name %q", name)
	}
	out, err := u.c.Shell(ctx, "am", "start",
		"-a", actionDelete,
		"-d", "package:"+name,
		"-f", flagActivityNewTask)
	if err != nil {
		return fmt.Errorf("am start failed: %w", err)
	}
	// am exits 0 even when the intent cannot be resolved.
	if bytes.Contains(out, []byte("Error:")) || bytes.Contains(out, []byte("Exception")) {
		return errors.New(strings.TrimSpace(string(out)))
	}
	return nil
}
