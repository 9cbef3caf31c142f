package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nestview/nestview/internal/server"
)

// serveCommand creates the serve command: run the HTTP API until the
// context is canceled.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes graphs over HTTP: ingest documents, collapse and
expand containers, fetch scenes, and manage saved views. The view
backend comes from the config file (memory, file, redis, or mongo).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			views, err := cfg.openViewStore(cmd.Context())
			if err != nil {
				return err
			}
			defer views.Close(context.Background())

			layouts, err := cfg.openLayoutCache()
			if err != nil {
				return err
			}
			defer layouts.Close()

			srv := &http.Server{
				Addr: addr,
				Handler: server.New(server.Options{
					Logger:      c.Logger,
					Views:       views,
					GraphConfig: cfg.graphConfig(),
					Layouts:     layouts,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
