// Package app exposes the rendering service over HTTP.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/semaphore"

	"github.com/stolasapp/calliope/internal/config"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/service"
)

// maxBodySize bounds request bodies; posts are far smaller.
const maxBodySize = "2M"

// Renderer is the subset of [service.Service] served over HTTP.
type Renderer interface {
	RenderPostBody(ctx context.Context, src service.Source, opts service.RenderOptions) string
	PostBodySummary(ctx context.Context, src service.Source, length int, platform string) string
	CatchPostImage(ctx context.Context, src service.Source, width, height int, format proxy.Format) (string, bool)
	ProxifyImageSrc(src string, width, height int, format proxy.Format) string
	IsValidUsername(name string) bool
	IsValidPermlink(permlink string) bool
}

// New creates the HTTP API server.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	svc Renderer,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.JSONSerializer = jsonSerializer{}

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.BodyLimit(maxBodySize),
		middleware.Decompress(),
		middleware.Gzip(),
		middleware.Secure(),
		middleware.RequestID(),
	)

	handler{
		svc:     svc,
		logger:  logger.With(slog.String("component", "app")),
		workers: semaphore.NewWeighted(int64(cfg.MaxConcurrentRenders)),
		timeout: cfg.RenderTimeout,
	}.register(srv)
	return srv
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
