package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/render"
	"github.com/stolasapp/calliope/internal/service"
)

type handler struct {
	svc     Renderer
	logger  *slog.Logger
	workers *semaphore.Weighted
	timeout time.Duration
}

func (h handler) register(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.POST("/render", h.render)
	v1.POST("/summary", h.summary)
	v1.POST("/image", h.image)
	v1.GET("/proxify", h.proxify)

	validate := v1.Group("/validate")
	validate.GET("/username/:name", h.validateUsername)
	validate.GET("/permlink/:permlink", h.validatePermlink)
}

// sourceRequest carries either a full entry, which is cached, or a bare
// body, which is not.
type sourceRequest struct {
	Entry *service.ContentEntry `json:"entry"`
	Body  *string               `json:"body"`
}

func (r sourceRequest) source() (service.Source, error) {
	switch {
	case r.Entry != nil:
		return r.Entry, nil
	case r.Body != nil:
		return service.Text(*r.Body), nil
	default:
		return nil, echo.NewHTTPError(http.StatusBadRequest, "one of entry or body is required")
	}
}

type seoContext struct {
	AuthorReputation float64 `json:"author_reputation"`
	PostPayout       float64 `json:"post_payout"`
}

type renderRequest struct {
	sourceRequest

	ForApp       *bool       `json:"for_app"`
	PreferWebP   bool        `json:"prefer_webp"`
	ParentDomain string      `json:"parent_domain"`
	SEOContext   *seoContext `json:"seo_context"`
}

func (h handler) render(c echo.Context) error {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	src, err := req.source()
	if err != nil {
		return err
	}

	opts := service.DefaultRenderOptions()
	if req.ForApp != nil {
		opts.ForApp = *req.ForApp
	}
	opts.PreferWebP = req.PreferWebP
	opts.ParentDomain = req.ParentDomain
	if req.SEOContext != nil {
		opts.SEO = &render.SEO{
			AuthorReputation: req.SEOContext.AuthorReputation,
			PostPayout:       req.SEOContext.PostPayout,
		}
	}

	out, err := h.run(c, func(ctx context.Context) string {
		return h.svc.RenderPostBody(ctx, src, opts)
	})
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, out)
}

type summaryRequest struct {
	sourceRequest

	Length   *int   `json:"length"`
	Platform string `json:"platform"`
}

func (h handler) summary(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	src, err := req.source()
	if err != nil {
		return err
	}
	length := service.DefaultSummaryLength
	if req.Length != nil {
		length = *req.Length
	}

	out, err := h.run(c, func(ctx context.Context) string {
		return h.svc.PostBodySummary(ctx, src, length, req.Platform)
	})
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, out)
}

type imageRequest struct {
	sourceRequest

	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

func (h handler) image(c echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	src, err := req.source()
	if err != nil {
		return err
	}
	format, err := parseFormat(req.Format)
	if err != nil {
		return err
	}

	out, err := h.run(c, func(ctx context.Context) string {
		image, _ := h.svc.CatchPostImage(ctx, src, req.Width, req.Height, format)
		return image
	})
	if err != nil {
		return err
	}
	if out == "" {
		return c.NoContent(http.StatusNoContent)
	}
	return c.String(http.StatusOK, out)
}

func (h handler) proxify(c echo.Context) error {
	var (
		src           string
		width, height int
		formatName    string
	)
	err := echo.QueryParamsBinder(c).
		String("url", &src).
		Int("width", &width).
		Int("height", &height).
		String("format", &formatName).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	format, err := parseFormat(formatName)
	if err != nil {
		return err
	}

	out := h.svc.ProxifyImageSrc(src, width, height, format)
	if out == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url must be an absolute http(s) URL")
	}
	return c.String(http.StatusOK, out)
}

type validation struct {
	Valid bool `json:"valid"`
}

func (h handler) validateUsername(c echo.Context) error {
	return c.JSON(http.StatusOK, validation{Valid: h.svc.IsValidUsername(c.Param("name"))})
}

func (h handler) validatePermlink(c echo.Context) error {
	return c.JSON(http.StatusOK, validation{Valid: h.svc.IsValidPermlink(c.Param("permlink"))})
}

// run executes fn on a bounded worker. When the render timeout elapses
// first, the request fails with 503 and the result is discarded; the worker
// slot is held until fn returns.
func (h handler) run(c echo.Context, fn func(context.Context) string) (string, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.workers.Acquire(ctx, 1); err != nil {
		h.logger.WarnContext(ctx, "no render worker available",
			slog.String("route", c.Path()),
			slog.Any("error", err),
		)
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "render capacity exhausted")
	}

	result := make(chan string, 1)
	go func() {
		defer h.workers.Release(1)
		result <- fn(context.WithoutCancel(ctx))
	}()

	select {
	case out := <-result:
		return out, nil
	case <-ctx.Done():
		h.logger.WarnContext(ctx, "render abandoned",
			slog.String("route", c.Path()),
			slog.Duration("timeout", h.timeout),
		)
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "render timed out")
	}
}

func parseFormat(name string) (proxy.Format, error) {
	format, err := proxy.ParseFormat(name)
	if err != nil {
		return format, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return format, nil
}
