package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/calliope/internal/config"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/service"
)

func newTestApp(t *testing.T, cfg *config.Config, svc Renderer) *echo.Echo {
	t.Helper()
	if svc == nil {
		inner, err := service.New(cfg.Rendering(), slog.Default())
		require.NoError(t, err)
		svc = inner
	}
	return New(cfg, slog.Default(), svc)
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRender(t *testing.T) {
	t.Parallel()

	e := newTestApp(t, config.Default(), nil)

	tests := []struct {
		name     string
		body     string
		status   int
		contains []string
	}{
		{
			name:     "site body",
			body:     `{"body":"Check out @alice and #hive-167922","for_app":false}`,
			status:   http.StatusOK,
			contains: []string{`href="/@alice"`, `href="/trending/hive-167922"`},
		},
		{
			name:     "defaults to app",
			body:     `{"body":"hi @alice"}`,
			status:   http.StatusOK,
			contains: []string{`data-author="alice"`},
		},
		{
			name: "entry with seo",
			body: `{"entry":{"author":"alice","permlink":"p","body":"[x](https://example.com)",` +
				`"json_metadata":"{}","last_update":"1","updated":"1"},` +
				`"for_app":false,"seo_context":{"author_reputation":70,"post_payout":20}}`,
			status:   http.StatusOK,
			contains: []string{`rel="noopener"`},
		},
		{
			name:   "missing source",
			body:   `{"for_app":false}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed json",
			body:   `{"body":`,
			status: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, e, http.MethodPost, "/v1/render", test.body)
			assert.Equal(t, test.status, rec.Code, rec.Body.String())
			if test.status == http.StatusOK {
				assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
			}
			for _, want := range test.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	e := newTestApp(t, config.Default(), nil)
	rec := do(t, e, http.MethodPost, "/v1/summary", `{"body":"# Hello\n\nworld of words","length":11}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello world", rec.Body.String())
}

func TestImage(t *testing.T) {
	t.Parallel()

	e := newTestApp(t, config.Default(), nil)

	rec := do(t, e, http.MethodPost, "/v1/image", `{"body":"![a](https://example.com/a.png)","width":100,"format":"webp"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), proxy.DefaultBase+"/p/"))
	assert.Contains(t, rec.Body.String(), "width=100")

	rec = do(t, e, http.MethodPost, "/v1/image", `{"body":"no images"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/image", `{"body":"x","format":"tiff"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxify(t *testing.T) {
	t.Parallel()

	e := newTestApp(t, config.Default(), nil)

	rec := do(t, e, http.MethodGet, "/v1/proxify?url=https%3A%2F%2Fexample.com%2Fa.png&width=64&format=png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "format=png")
	assert.Contains(t, rec.Body.String(), "width=64")

	rec = do(t, e, http.MethodGet, "/v1/proxify?url=not+a+url", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/proxify?url=https%3A%2F%2Fexample.com%2Fa.png&width=wide", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	e := newTestApp(t, config.Default(), nil)

	tests := []struct {
		target string
		want   string
	}{
		{target: "/v1/validate/username/alice", want: `{"valid":true}`},
		{target: "/v1/validate/username/a", want: `{"valid":false}`},
		{target: "/v1/validate/permlink/my-post", want: `{"valid":true}`},
		{target: "/v1/validate/permlink/photo.jpg", want: `{"valid":false}`},
	}
	for _, test := range tests {
		t.Run(test.target, func(t *testing.T) {
			t.Parallel()
			rec := do(t, e, http.MethodGet, test.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, test.want, rec.Body.String())
		})
	}
}

// slowService blocks renders until released.
type slowService struct {
	*service.Service
	release chan struct{}
}

func (s slowService) RenderPostBody(ctx context.Context, src service.Source, opts service.RenderOptions) string {
	<-s.release
	return s.Service.RenderPostBody(ctx, src, opts)
}

func TestRenderTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RenderTimeout = 20 * time.Millisecond
	cfg.MaxConcurrentRenders = 1

	inner, err := service.New(cfg.Rendering(), slog.Default())
	require.NoError(t, err)
	slow := slowService{Service: inner, release: make(chan struct{})}
	t.Cleanup(func() { close(slow.release) })

	e := newTestApp(t, cfg, slow)

	// the first render is abandoned but keeps holding the only worker
	rec := do(t, e, http.MethodPost, "/v1/render", `{"body":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/render", `{"body":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// requests that do not render are unaffected
	rec = do(t, e, http.MethodGet, "/v1/validate/username/alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
