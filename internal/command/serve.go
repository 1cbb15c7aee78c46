package command

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/calliope/internal/app"
	"github.com/stolasapp/calliope/internal/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the rendering HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}

			addr := cfg.WebAddress
			if addr == "" {
				logger.WarnContext(cmd.Context(), "web_address is empty, nothing to serve")
				return nil
			}

			grp, ctx := errgroup.WithContext(cmd.Context())
			listener, err := server.Listen(ctx, addr)
			if err != nil {
				return err
			}

			srv := app.New(cfg, logger, svc)
			logger.InfoContext(ctx,
				"starting app server...",
				slog.String("address", listener.Addr().String()),
				slog.Int("max_concurrent_renders", cfg.MaxConcurrentRenders),
				slog.Duration("render_timeout", cfg.RenderTimeout),
			)
			server.Serve(ctx, grp, srv.Server, listener, server.DefaultTimeouts(cfg.RenderTimeout))
			return grp.Wait()
		},
	}
}
