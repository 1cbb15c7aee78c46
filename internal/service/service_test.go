package service

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/calliope/internal/content"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/render"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(DefaultRenderingConfig(), slog.Default())
	require.NoError(t, err)
	return svc
}

func testEntry() *ContentEntry {
	return &ContentEntry{
		Author:     "alice",
		Permlink:   "my-post",
		Body:       "Check out @alice and #hive-167922\n\n![cat](https://example.com/cat.png)",
		LastUpdate: "2024-01-01T00:00:00",
		Updated:    "2024-01-01T00:00:00",
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := DefaultRenderingConfig()
	cfg.CacheCapacity = 0
	_, err := New(cfg, slog.Default())
	require.Error(t, err)

	cfg = DefaultRenderingConfig()
	cfg.HighlightStyle = "no-such-style"
	_, err = New(cfg, slog.Default())
	require.ErrorIs(t, err, content.ErrUnknownHighlightStyle)

	cfg = DefaultRenderingConfig()
	cfg.SiteDomain = ""
	cfg.HighlightStyle = "monokai"
	svc, err := New(cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "ecency.com", svc.Config().SiteDomain)
}

func TestRenderPostBody(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	got := svc.RenderPostBody(t.Context(), Text("Check out @alice and #hive-167922"), RenderOptions{})
	assert.Contains(t, got, `href="/@alice"`)
	assert.Contains(t, got, `href="/trending/hive-167922"`)

	app := svc.RenderPostBody(t.Context(), Text("Check out @alice"), DefaultRenderOptions())
	assert.Contains(t, app, `data-author="alice"`)

	assert.Empty(t, svc.RenderPostBody(t.Context(), Text(""), RenderOptions{}))
	assert.Empty(t, svc.RenderPostBody(t.Context(), &ContentEntry{}, RenderOptions{}))
}

func TestRenderPostBodyCache(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	entry := testEntry()

	first := svc.RenderPostBody(t.Context(), entry, RenderOptions{})
	second := svc.RenderPostBody(t.Context(), entry, RenderOptions{})
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), svc.CacheStats().Hits)

	// a cached entry is served even if the body changes under the same identity
	entry.Body = "changed"
	assert.Equal(t, first, svc.RenderPostBody(t.Context(), entry, RenderOptions{}))

	// a new revision misses
	entry.Updated = "2024-02-01T00:00:00"
	assert.Contains(t, svc.RenderPostBody(t.Context(), entry, RenderOptions{}), "changed")

	// raw text is never cached
	before := svc.CacheStats()
	svc.RenderPostBody(t.Context(), Text("plain"), RenderOptions{})
	svc.RenderPostBody(t.Context(), Text("plain"), RenderOptions{})
	assert.Equal(t, before, svc.CacheStats())
}

func TestRenderKey(t *testing.T) {
	t.Parallel()

	fp := testEntry().Fingerprint()
	assert.Equal(t, "alice-my-post-2024-01-01T00:00:00-2024-01-01T00:00:00", fp)

	tests := []struct {
		name string
		ctx  render.Context
		want string
	}{
		{
			name: "site",
			ctx:  render.Context{ParentDomain: "ecency.com"},
			want: fp + "-site-ecency.com-match",
		},
		{
			name: "app webp",
			ctx:  render.Context{ForApp: true, PreferWebP: true, ParentDomain: "example.org"},
			want: fp + "-app-example.org-webp",
		},
		{
			name: "seo",
			ctx:  render.Context{ParentDomain: "ecency.com", SEO: &render.SEO{AuthorReputation: 62.5, PostPayout: 10}},
			want: fp + "-site-ecency.com-match-seo-62.5-10",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.want, renderKey(fp, test.ctx))
		})
	}
}

func TestPostBodySummary(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	entry := testEntry()
	entry.Body = "# Title\n\nSome **bold** words https://example.com and more words here"

	got := svc.PostBodySummary(t.Context(), entry, 20, "")
	assert.Equal(t, "Title Some bold", got)
	assert.Equal(t, got, svc.PostBodySummary(t.Context(), entry, 20, ""))

	full := svc.PostBodySummary(t.Context(), Text(entry.Body), 0, DefaultPlatform)
	assert.Equal(t, "Title Some bold words and more words here", full)
	assert.Empty(t, svc.PostBodySummary(t.Context(), Text(""), 10, ""))
}

func TestCatchPostImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	t.Run("metadata first", func(t *testing.T) {
		t.Parallel()
		entry := testEntry()
		entry.JSONMetadata = Metadata{Image: stringList{"https://example.com/lead.jpg"}}
		got, ok := svc.CatchPostImage(t.Context(), entry, 0, 0, proxy.FormatMatch)
		require.True(t, ok)
		assert.Equal(t, svc.ProxifyImageSrc("https://example.com/lead.jpg", 0, 0, proxy.FormatMatch), got)
	})

	t.Run("body fallback", func(t *testing.T) {
		t.Parallel()
		got, ok := svc.CatchPostImage(t.Context(), testEntry(), 640, 480, proxy.FormatWebP)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(got, proxy.DefaultBase+"/p/"))
		assert.Contains(t, got, "width=640")
		assert.Contains(t, got, "height=480")
		assert.Contains(t, got, "format=webp")
	})

	t.Run("gif not resized", func(t *testing.T) {
		t.Parallel()
		entry := testEntry()
		entry.JSONMetadata = Metadata{Image: stringList{"https://example.com/dance.gif"}}
		got, ok := svc.CatchPostImage(t.Context(), entry, 640, 480, proxy.FormatWebP)
		require.True(t, ok)
		assert.NotContains(t, got, "?")
	})

	t.Run("body gif not resized", func(t *testing.T) {
		t.Parallel()
		got, ok := svc.CatchPostImage(t.Context(), Text("![x](https://example.com/anim.gif)"), 640, 480, proxy.FormatWebP)
		require.True(t, ok)
		assert.Equal(t, svc.ProxifyImageSrc("https://example.com/anim.gif", 0, 0, proxy.FormatMatch), got)
		assert.NotContains(t, got, "?")
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		got, ok := svc.CatchPostImage(t.Context(), Text("no images here"), 0, 0, proxy.FormatMatch)
		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestProxifyImageSrc(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	assert.Empty(t, svc.ProxifyImageSrc("not a url", 0, 0, proxy.FormatMatch))
	got := svc.ProxifyImageSrc(" https://example.com/a.png ", 0, 0, proxy.FormatMatch)
	assert.True(t, strings.HasPrefix(got, proxy.DefaultBase+"/p/"))
}

func TestSetProxyBase(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	entry := testEntry()
	before := svc.RenderPostBody(t.Context(), entry, RenderOptions{})

	svc.SetProxyBase("https://img.example.org/")
	assert.Equal(t, "https://img.example.org", svc.Config().ProxyBase)
	assert.True(t, strings.HasPrefix(
		svc.ProxifyImageSrc("https://example.com/a.png", 0, 0, proxy.FormatMatch),
		"https://img.example.org/p/",
	))

	// cached output is not retroactively rewritten
	assert.Equal(t, before, svc.RenderPostBody(t.Context(), entry, RenderOptions{}))

	fresh := svc.RenderPostBody(t.Context(), Text(entry.Body), RenderOptions{})
	assert.Contains(t, fresh, "https://img.example.org/p/")
}

func TestSetCacheCapacity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.RenderPostBody(t.Context(), testEntry(), RenderOptions{})

	require.Error(t, svc.SetCacheCapacity(0))
	require.NoError(t, svc.SetCacheCapacity(5))
	assert.Equal(t, 5, svc.Config().CacheCapacity)

	misses := svc.CacheStats().Misses
	svc.RenderPostBody(t.Context(), testEntry(), RenderOptions{})
	assert.Equal(t, misses+1, svc.CacheStats().Misses)
}

func TestValidators(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	assert.True(t, svc.IsValidUsername("alice"))
	assert.False(t, svc.IsValidUsername("al"))
	assert.True(t, svc.IsValidPermlink("my-post"))
	assert.False(t, svc.IsValidPermlink("image.png"))
}

func TestConcurrentRenders(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	entry := testEntry()
	want := svc.RenderPostBody(t.Context(), Text(entry.Body), RenderOptions{})

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.RenderPostBody(t.Context(), entry, RenderOptions{})
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
