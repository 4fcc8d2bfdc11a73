package root

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/server"
	"levelup/internal/storage"
	"levelup/internal/ui"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authoritative XP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, cleanup, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := newLogger()
			srv := server.New(storage.NewXPStore(db, engine.DefaultLevels), server.Options{
				Logger:     logger,
				AdminToken: cfg.Server.AdminToken,
			})
			if cfg.Server.AdminToken == "" {
				logger.Printf("Warning: server.admin_token is empty, admin routes are open")
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- httpSrv.ListenAndServe() }()
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconBolt+" listening on "+addr))

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")

	return cmd
}
