package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidkm/sift/internal/api"
	"github.com/sidkm/sift/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                                     - Liveness
  GET  /health/deep                                - Backend readiness
  GET  /api/v1/recommendations/{strategy}          - Run the scoring pipeline
  POST /api/v1/recommendations/{strategy}/validate - Validate a combination
  GET  /api/v1/recommendations/{strategy}/scans    - Recent scan snapshots
  GET  /api/v1/strategies                          - List loaded catalogs
  POST /api/v1/abtests                             - Create an A/B test
  GET  /ws/scans                                   - Live scan stream

Example:
  go run ./cmd/sift api
  go run ./cmd/sift api --port 8087`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialize A/B test manager: %w", err)
	}

	recommendHandler := handlers.NewRecommendHandler(a.service, a.log)
	abtestHandler := handlers.NewABTestHandler(manager, a.log)
	strategyHandler := handlers.NewStrategyHandler(a.store, a.log)
	healthHandler := handlers.NewHealthHandler(a.db, a.redis, a.log)
	streamHandler := handlers.NewStreamHandler(a.log)

	router := api.NewRouter(recommendHandler, abtestHandler, strategyHandler, healthHandler, streamHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	// Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.Infof("Received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
