package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/appsize/internal/bridge"
)

var (
	serveStdio bool
	serveAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app inventory to an application shell",
	Long: `Answers getInstalledApps and uninstallApp method calls.

With --stdio, requests are read one JSON object per line from stdin and
replies written one per line to stdout:

  {"id":1,"method":"getInstalledApps"}
  {"id":2,"method":"uninstallApp","arguments":{"packageName":"com.example.game"}}

Otherwise an HTTP server listens on --addr (default $APPSIZE_LISTEN_ADDR):

  POST /channel/<method>   JSON arguments as the body
  GET  /healthz
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "serve JSON lines on stdin/stdout")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default: $APPSIZE_LISTEN_ADDR or 127.0.0.1:8765)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	metrics := bridge.NewMetrics()
	handler := bridge.NewHandler(s.service, s.logger, metrics)

	if serveStdio {
		s.logger.Info("bridge serving on stdio", zap.String("channel", s.cfg.Bridge.Channel))
		return handler.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Bridge.ListenAddr
	}
	gin.SetMode(gin.ReleaseMode)
	router := bridge.NewRouter(handler, s.cfg.Bridge.Channel, metrics)
	return serveHTTP(ctx, addr, router, s.logger)
}

// serveHTTP is replaced in tests.
var serveHTTP = func(ctx context.Context, addr string, router *gin.Engine, logger *zap.Logger) error {
	return bridge.ListenAndServe(ctx, addr, router, logger)
}
