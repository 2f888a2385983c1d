package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter exposes the handler over HTTP:
//
//	POST /channel/:method   body: JSON arguments object (optional)
//	GET  /channel           channel name and methods
//	GET  /healthz
//	GET  /metrics           when metrics is non-nil
func NewRouter(h *Handler, channel string, metrics *Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/channel", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"channel": channel,
			"methods": []string{MethodGetInstalledApps, MethodUninstallApp},
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.POST("/channel/:method", func(c *gin.Context) {
		var args map[string]any
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, Result{Error: &CallError{
					Code:    CodeInvalidArgs,
					Message: fmt.Sprintf("malformed arguments: %v", err),
				}})
				return
			}
		}

		res := h.Handle(c.Request.Context(), MethodCall{Method: c.Param("method"), Arguments: args})
		c.JSON(statusFor(res), res)
	})

	return router
}

func statusFor(res Result) int {
	switch {
	case res.NotImplemented:
		return http.StatusNotImplemented
	case res.Error == nil:
		return http.StatusOK
	case res.Error.Code == CodeInvalidArgs:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListenAndServe serves router on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, router http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("bridge shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bridge shutdown failed: %w", err)
	}
	return nil
}
