package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/api"
	"github.com/formweave/formweave/internal/lock"
	"github.com/formweave/formweave/internal/registry"
	"github.com/formweave/formweave/internal/ws"
)

var (
	servePort    int
	serveDevMode bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the schema registry over HTTP. Rendering clients fetch active
schemas, editors manage drafts, and WebSocket subscribers receive
lifecycle events as schemas change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := lock.Acquire(""); err != nil {
			return err
		}
		defer lock.Release("")

		eng, logger, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(context.Background())

		port := eng.Config.API.Port
		if servePort != 0 {
			port = servePort
		}

		hub := ws.NewHub(logger)
		hub.SetCatalogProvider(func() ([]byte, error) {
			entries, err := eng.SchemasByStatus(context.Background(), "", registry.StatusActive)
			if err != nil {
				return nil, err
			}
			return json.Marshal(entries)
		})
		eng.Registry.OnChange = hub.BroadcastChange
		go hub.Run(ctx)

		srv := api.New(eng, logger, port,
			api.WithHub(hub),
			api.WithDevMode(serveDevMode || eng.Config.API.DevMode),
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		fmt.Fprintf(os.Stderr, "Formweave API: http://localhost:%d\n", port)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port for the API server (default from config)")
	serveCmd.Flags().BoolVar(&serveDevMode, "dev", false, "enable CORS for development mode")
	rootCmd.AddCommand(serveCmd)
}
