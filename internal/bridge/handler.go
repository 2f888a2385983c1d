// Package bridge exposes the inventory service to an application shell as
// named method calls with tagged results, over stdio or HTTP.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// Inventory is the service the bridge calls into.
type Inventory interface {
	ListInstalledApps(ctx context.Context) ([]inventory.AppRecord, error)
	RequestUninstall(ctx context.Context, name string) error
}

// MethodCall is one request from the shell.
type MethodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Result is the reply to a MethodCall. Exactly one of Success, Error or
// NotImplemented is set.
type Result struct {
	Success        any        `json:"result,omitempty"`
	Error          *CallError `json:"error,omitempty"`
	NotImplemented bool       `json:"notImplemented,omitempty"`
}

// Handler dispatches method calls.
type Handler struct {
	inv     Inventory
	logger  *zap.Logger
	metrics *Metrics
}

// NewHandler creates a Handler. logger and metrics may be nil.
func NewHandler(inv Inventory, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{inv: inv, logger: logger, metrics: metrics}
}

// Handle runs one call to completion.
func (h *Handler) Handle(ctx context.Context, call MethodCall) Result {
	start := time.Now()
	logger := h.logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("method", call.Method))

	// Unknown names share one metric label so callers cannot grow the
	// series without bound.
	label := call.Method
	var res Result
	switch call.Method {
	case MethodGetInstalledApps:
		res = h.getInstalledApps(ctx)
	case MethodUninstallApp:
		res = h.uninstallApp(ctx, call.Arguments)
	default:
		label = unknownMethod
		res = Result{NotImplemented: true}
	}

	outcome := "success"
	switch {
	case res.NotImplemented:
		outcome = "not_implemented"
		logger.Warn("method not implemented")
	case res.Error != nil:
		outcome = string(res.Error.Code)
		logger.Error("call failed",
			zap.String("code", string(res.Error.Code)),
			zap.String("message", res.Error.Message))
	default:
		logger.Debug("call completed", zap.Duration("elapsed", time.Since(start)))
	}
	h.metrics.observe(label, outcome, time.Since(start))
	return res
}

// getInstalledApps returns the records serialized as a JSON array string,
// the shape the shell decodes.
func (h *Handler) getInstalledApps(ctx context.Context) Result {
	records, err := h.inv.ListInstalledApps(ctx)
	if err != nil {
		return Result{Error: newCallError(CodeError, err)}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return Result{Error: newCallError(CodeError, fmt.Errorf("failed to encode apps: %w", err))}
	}
	h.metrics.observeApps(len(records))
	return Result{Success: string(data)}
}

// uninstallApp returns true once the uninstall dialog was requested. That is
// not confirmation that the app was removed.
func (h *Handler) uninstallApp(ctx context.Context, args map[string]any) Result {
	name, ok := args["packageName"].(string)
	if !ok || name == "" {
		return Result{Error: &CallError{Code: CodeInvalidArgs, Message: "packageName is required"}}
	}
	if err := h.inv.RequestUninstall(ctx, name); err != nil {
		return Result{Error: newCallError(CodeUninstallError, err)}
	}
	return Result{Success: true}
}
