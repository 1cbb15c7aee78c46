// Package service is the public rendering surface: post bodies, summaries,
// lead images, proxied image URLs and reference validation, backed by a
// shared LRU cache.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/stolasapp/calliope/internal/cache"
	"github.com/stolasapp/calliope/internal/catalog"
	"github.com/stolasapp/calliope/internal/content"
	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/refs"
	"github.com/stolasapp/calliope/internal/render"
)

// Default summary parameters.
const (
	DefaultSummaryLength = 200
	DefaultPlatform      = content.PlatformWeb
)

// RenderingConfig configures a Service.
type RenderingConfig struct {
	// ProxyBase is the image proxy root. Empty selects [proxy.DefaultBase].
	ProxyBase string
	// SiteDomain is the parent domain of renders that do not name one.
	SiteDomain string
	// CacheCapacity bounds the number of cached results.
	CacheCapacity int
	// HighlightStyle names a chroma style for fenced code. Empty disables
	// highlighting.
	HighlightStyle string
}

// DefaultRenderingConfig returns the configuration used by the public site.
func DefaultRenderingConfig() RenderingConfig {
	return RenderingConfig{
		ProxyBase:     proxy.DefaultBase,
		SiteDomain:    catalog.DefaultSiteDomain,
		CacheCapacity: 60,
	}
}

// RenderOptions are the per-call render parameters.
type RenderOptions struct {
	ForApp       bool
	PreferWebP   bool
	ParentDomain string
	SEO          *render.SEO
}

// DefaultRenderOptions renders for the app, matching the historical default.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{ForApp: true}
}

// Service renders content. All methods are safe for concurrent use and
// never fail: unrenderable input degrades to escaped text.
type Service struct {
	logger *slog.Logger
	store  *cache.Store

	mu       sync.RWMutex
	cfg      RenderingConfig
	proxy    *proxy.Builder
	renderer *render.Renderer
}

// New creates a Service from cfg.
func New(cfg RenderingConfig, logger *slog.Logger) (*Service, error) {
	if err := content.ValidateHighlightStyle(cfg.HighlightStyle); err != nil {
		return nil, err
	}
	if cfg.SiteDomain == "" {
		cfg.SiteDomain = catalog.DefaultSiteDomain
	}
	store, err := cache.New(cfg.CacheCapacity, logger)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		logger: logger.With(slog.String("component", "service")),
		store:  store,
		cfg:    cfg,
	}
	svc.setProxy(cfg.ProxyBase)
	return svc, nil
}

// Config returns the current configuration.
func (s *Service) Config() RenderingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// CacheStats returns the cache lookup counters.
func (s *Service) CacheStats() cache.Stats {
	return s.store.Stats()
}

func (s *Service) current() (*render.Renderer, *proxy.Builder, RenderingConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer, s.proxy, s.cfg
}

// RenderPostBody renders the body of src to sanitized HTML. Fingerprinted
// sources are cached per fingerprint and options.
func (s *Service) RenderPostBody(ctx context.Context, src Source, opts RenderOptions) string {
	body := src.Content()
	if body == "" {
		return ""
	}
	renderer, _, cfg := s.current()
	rc := render.Context{
		ForApp:       opts.ForApp,
		PreferWebP:   opts.PreferWebP,
		ParentDomain: opts.ParentDomain,
		SEO:          opts.SEO,
	}
	if rc.ParentDomain == "" {
		rc.ParentDomain = cfg.SiteDomain
	}

	compute := func(key string) func() string {
		return func() string {
			output, outcome := renderer.Render(ctx, body, rc)
			if outcome != render.OutcomePrimary {
				s.logger.WarnContext(ctx, "render degraded",
					slog.String("key", key),
					slog.String("outcome", outcome.String()),
				)
			}
			return output
		}
	}

	entry, ok := src.(Fingerprinted)
	if !ok {
		return compute("")()
	}
	key := renderKey(entry.Fingerprint(), rc)
	return s.store.GetOrCompute(ctx, key, compute(key))
}

// PostBodySummary returns up to length characters of plain text from the
// body of src, cut at a word boundary. A length of zero or less disables
// truncation.
func (s *Service) PostBodySummary(ctx context.Context, src Source, length int, platform string) string {
	body := src.Content()
	if body == "" {
		return ""
	}
	if platform == "" {
		platform = DefaultPlatform
	}
	compute := func() string {
		summary, err := content.Summarize(length, platform)([]byte(body))
		if err != nil {
			s.logger.WarnContext(ctx, "failed to summarize body", slog.Any("error", err))
			return ""
		}
		return string(summary)
	}

	entry, ok := src.(Fingerprinted)
	if !ok {
		return compute()
	}
	key := fmt.Sprintf("%s-summary-%d-%s", entry.Fingerprint(), length, platform)
	return s.store.GetOrCompute(ctx, key, compute)
}

// imageSource is implemented by sources that declare images in metadata.
type imageSource interface {
	MetadataImage() (string, bool)
}

// MetadataImage returns the first image declared in the entry metadata.
func (e *ContentEntry) MetadataImage() (string, bool) {
	return e.JSONMetadata.FirstImage()
}

// CatchPostImage returns the proxied lead image of src: the first image
// declared in its metadata, else the first image of its rendered body.
// GIFs are never resized.
func (s *Service) CatchPostImage(ctx context.Context, src Source, width, height int, format proxy.Format) (string, bool) {
	compute := func() string {
		image, ok := "", false
		if declared, isDeclared := src.(imageSource); isDeclared {
			image, ok = declared.MetadataImage()
		}
		if !ok {
			image, ok = s.firstBodyImage(ctx, src)
		}
		if !ok {
			return ""
		}
		return s.ProxifyImageSrc(image, width, height, format)
	}

	var image string
	if entry, ok := src.(Fingerprinted); ok {
		key := fmt.Sprintf("%s-image-%dx%d-%s", entry.Fingerprint(), width, height, format)
		image = s.store.GetOrCompute(ctx, key, compute)
	} else {
		image = compute()
	}
	return image, image != ""
}

func (s *Service) firstBodyImage(ctx context.Context, src Source) (string, bool) {
	rendered := s.RenderPostBody(ctx, Text(src.Content()), RenderOptions{})
	if rendered == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(rendered)))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to parse rendered body", slog.Any("error", err))
		return "", false
	}
	var image string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			if value, ok := sel.Attr(attr); ok && strings.TrimSpace(value) != "" {
				image = strings.TrimSpace(value)
				return false
			}
		}
		return true
	})
	return image, image != ""
}

// ProxifyImageSrc returns the proxy URL for src, or "" if src is not an
// absolute http(s) URL.
func (s *Service) ProxifyImageSrc(src string, width, height int, format proxy.Format) string {
	_, builder, _ := s.current()
	return builder.Proxify(strings.TrimSpace(src), width, height, format)
}

// SetProxyBase switches the image proxy for subsequent calls. Results
// already cached keep the previous base.
func (s *Service) SetProxyBase(base string) {
	s.setProxy(base)
}

func (s *Service) setProxy(base string) {
	builder := proxy.New(base)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxy = builder
	s.cfg.ProxyBase = builder.Base()
	s.renderer = render.New(builder, s.cfg.HighlightStyle, s.logger)
}

// SetCacheCapacity replaces the cache with an empty one holding at most
// capacity entries.
func (s *Service) SetCacheCapacity(capacity int) error {
	if err := s.store.Resize(capacity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.CacheCapacity = capacity
	return nil
}

// IsValidUsername reports whether name is a valid account name.
func (s *Service) IsValidUsername(name string) bool {
	return refs.IsValidUsername(name)
}

// IsValidPermlink reports whether permlink is a valid post slug.
func (s *Service) IsValidPermlink(permlink string) bool {
	return refs.IsValidPermlink(permlink)
}

// renderKey extends a fingerprint with every render parameter that can
// change the output.
func renderKey(fingerprint string, rc render.Context) string {
	mode := "site"
	if rc.ForApp {
		mode = "app"
	}
	format := proxy.FormatMatch
	if rc.PreferWebP {
		format = proxy.FormatWebP
	}
	key := strings.Join([]string{fingerprint, mode, rc.ParentDomain, format.String()}, "-")
	if rc.SEO != nil {
		key += "-seo-" + strconv.FormatFloat(rc.SEO.AuthorReputation, 'f', -1, 64) +
			"-" + strconv.FormatFloat(rc.SEO.PostPayout, 'f', -1, 64)
	}
	return key
}
