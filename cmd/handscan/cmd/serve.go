package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/MeKo-Tech/handscan/internal/server"
	"github.com/MeKo-Tech/handscan/internal/version"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the handwriting OCR API",
		Long: `Start an HTTP server that exposes encoding and text detection over REST and
WebSocket.

The server provides the following endpoints:
  POST /ocr/image - Detect text in an uploaded photo
  POST /encode    - Encode an uploaded photo as a base64 payload
  POST /decode    - Decode a base64 payload
  GET  /ws/ocr    - WebSocket text detection
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics

Examples:
  handscan serve
  handscan serve --port 8080
  handscan serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			sc := serverConfig(cfg, cmd)
			if sc.Port < 1 || sc.Port > 65535 {
				return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
			}

			detector, err := a.newDetector(cfg)
			if err != nil {
				return err
			}

			ocrServer, err := server.NewServer(server.Config{
				Host:        sc.Host,
				Port:        sc.Port,
				CORSOrigin:  sc.CORSOrigin,
				MaxUploadMB: int64(sc.MaxUploadMB),
				TimeoutSec:  sc.TimeoutSec,
				Version:     version.Version,
				Detector:    detector,
				Options:     analysisOptions(cfg, cmd.Flags()),
				RateLimit: server.RateLimitConfig{
					Enabled:           sc.RateLimitEnabled,
					RequestsPerMinute: sc.RequestsPerMinute,
					RequestsPerHour:   sc.RequestsPerHour,
					MaxRequestsPerDay: sc.MaxRequestsPerDay,
					MaxDataPerDay:     sc.MaxDataPerDay,
				},
			})
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// WriteTimeout leaves room for the handler's own deadline.
			httpServer := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", sc.Host, sc.Port),
				Handler:           ocrServer.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       time.Duration(sc.TimeoutSec) * time.Second,
				WriteTimeout:      time.Duration(sc.TimeoutSec+5) * time.Second,
			}

			go func() {
				slog.Info("Starting handscan server", "host", sc.Host, "port", sc.Port, "version", version.Version)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("Server error", "error", err)
					cancel()
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			defer signal.Stop(sigChan)

			select {
			case sig := <-sigChan:
				slog.Info("Received shutdown signal", "signal", sig.String())
			case <-ctx.Done():
				slog.Info("Context cancelled, initiating shutdown")
			}

			slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", sc.ShutdownTimeout))
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
				time.Duration(sc.ShutdownTimeout)*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
				return fmt.Errorf("shutdown: %w", err)
			}
			slog.Info("Graceful shutdown completed")
			return nil
		},
	}

	flags := cmd.Flags()
	addAnalysisFlags(flags)
	flags.StringP("host", "H", "", "server host")
	flags.IntP("port", "p", 0, "server port")
	flags.String("cors-origin", "", "CORS allowed origin")
	flags.Int("max-upload-size", 0, "maximum upload size in MB")
	flags.Int("timeout", 0, "request timeout in seconds")
	flags.Int("shutdown-timeout", 0, "shutdown timeout in seconds")
	flags.Bool("rate-limit-enabled", false, "enable rate limiting")
	flags.Int("requests-per-minute", 0, "maximum requests per minute per client")
	flags.Int("requests-per-hour", 0, "maximum requests per hour per client")
	flags.Int("max-requests-per-day", 0, "maximum requests per day per client")
	flags.Int64("max-data-per-day", 0, "maximum bytes uploaded per day per client")
	return cmd
}

// serverConfig applies changed serve flags on top of the configuration.
func serverConfig(cfg *config.Config, cmd *cobra.Command) config.ServerConfig {
	flags := cmd.Flags()
	sc := cfg.Server
	overrideString(flags, "host", &sc.Host)
	overrideInt(flags, "port", &sc.Port)
	overrideString(flags, "cors-origin", &sc.CORSOrigin)
	overrideInt(flags, "max-upload-size", &sc.MaxUploadMB)
	overrideInt(flags, "timeout", &sc.TimeoutSec)
	overrideInt(flags, "shutdown-timeout", &sc.ShutdownTimeout)
	overrideBool(flags, "rate-limit-enabled", &sc.RateLimitEnabled)
	overrideInt(flags, "requests-per-minute", &sc.RequestsPerMinute)
	overrideInt(flags, "requests-per-hour", &sc.RequestsPerHour)
	overrideInt(flags, "max-requests-per-day", &sc.MaxRequestsPerDay)
	overrideInt64(flags, "max-data-per-day", &sc.MaxDataPerDay)
	return sc
}
