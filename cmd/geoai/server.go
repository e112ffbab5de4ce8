package geoai

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-geoai/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the go-geoai HTTP server",
	Long: `Start the go-geoai HTTP server to answer questions over a REST API.

The server provides endpoints for:
- Asking questions about datasets on the server (POST /api/v1/ask)
- Removing cached results (DELETE /api/v1/cache/:key)
- Health and readiness checks (GET /health, GET /ready)

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("host", "localhost", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
	serverCmd.Flags().String("mode", "debug", "Server mode (debug, release, test)")
	serverCmd.Flags().String("data-root", "", "Directory that dataset paths in requests are resolved in")

	_ = viper.BindPFlag("server.host", serverCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serverCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.mode", serverCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("server.data_root", serverCmd.Flags().Lookup("data-root"))
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize go-geoai: %w", err)
	}
	defer a.Close()

	srv := server.New(cfg, a.client, a.loader, a.logger)
	srv.SetReadiness(a.ready)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		a.logger.Info("server stopped gracefully")
		return nil
	}
}
