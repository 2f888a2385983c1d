package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// Code is the machine-readable error code returned to the shell.
type Code string

const (
	// CodeError is any failure of getInstalledApps.
	CodeError Code = "ERROR"
	// CodeUninstallError means the uninstall request could not be dispatched.
	CodeUninstallError Code = "UNINSTALL_ERROR"
	// CodeInvalidArgs means a required argument was missing.
	CodeInvalidArgs Code = "INVALID_ARGS"
)

// Method names understood by the bridge.
const (
	MethodGetInstalledApps = "getInstalledApps"
	MethodUninstallApp     = "uninstallApp"

	// unknownMethod is the metric label of every other method name.
	unknownMethod = "unknown"
)

// DefaultChannel is the channel name the application shell talks on.
const DefaultChannel = "com.tieorange.game_size_manager/games"

// CallError is a tagged failure result.
type CallError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newCallError tags err with code. Details carry the chain of wrapped errors,
// outermost first.
func newCallError(code Code, err error) *CallError {
	if errors.Is(err, inventory.ErrInvalidArgs) {
		return &CallError{Code: CodeInvalidArgs, Message: inventory.ErrInvalidArgs.Error()}
	}
	return &CallError{Code: code, Message: err.Error(), Details: trace(err)}
}

func trace(err error) string {
	var sb strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&sb, "%T: %v\n", e, e)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
