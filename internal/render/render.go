// Package render turns post bodies into sanitized HTML. Markdown is
// converted to a DOM, links, images, embeds and text are rewritten for the
// site or app, and the result always passes through the sanitizer.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stolasapp/calliope/internal/content"
	"github.com/stolasapp/calliope/internal/proxy"
)

// Renderer renders post bodies. It is safe for concurrent use; all per-call
// state lives in the walker.
type Renderer struct {
	proxy  *proxy.Builder
	logger *slog.Logger

	site     content.TransformerFunc
	app      content.TransformerFunc
	recovery content.TransformerFunc
	sanitize content.TransformerFunc
}

// New creates a Renderer that proxies images through builder. A non-empty
// highlightStyle enables syntax highlighting of fenced code.
func New(builder *proxy.Builder, highlightStyle string, logger *slog.Logger) *Renderer {
	sanitize := content.SanitizeHTML()
	return &Renderer{
		proxy:    builder,
		logger:   logger,
		site:     content.RenderPipeline(content.Options{HighlightStyle: highlightStyle}),
		app:      content.RenderPipeline(content.Options{ForApp: true, HighlightStyle: highlightStyle}),
		recovery: content.Chain(content.MarkdownToHTML(""), sanitize),
		sanitize: sanitize,
	}
}

// Proxy returns the image proxy builder in use.
func (r *Renderer) Proxy() *proxy.Builder { return r.proxy }

// Render converts body to sanitized HTML. It never fails: when the full
// pipeline errors the body is retried from pre-sanitized markup, and when
// that also fails the body is returned as escaped text.
func (r *Renderer) Render(ctx context.Context, body string, rc Context) (string, Outcome) {
	output, err := r.primary(body, rc)
	outcome := OutcomePrimary
	if err != nil {
		r.logger.WarnContext(ctx, "render failed, retrying from sanitized markup",
			slog.Any("error", err),
		)
		output, err = r.recover(body, rc)
		outcome = OutcomeRecovered
	}
	if err != nil {
		r.logger.WarnContext(ctx, "recovery render failed, escaping body",
			slog.Any("error", err),
		)
		output = escapeBody(body)
		outcome = OutcomeEscaped
	}

	sanitized, err := r.sanitize([]byte(output))
	if err != nil {
		return escapeBody(body), OutcomeEscaped
	}
	return string(sanitized), outcome
}

func (r *Renderer) primary(body string, rc Context) (output string, err error) {
	defer recoverPanic(&err)

	pipeline := r.site
	if rc.ForApp {
		pipeline = r.app
	}
	rendered, err := pipeline([]byte(body))
	if err != nil {
		return "", err
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: atom.Body.String()}
	nodes, err := html.ParseFragment(bytes.NewReader(rendered), root)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered markdown: %w", err)
	}
	for _, node := range nodes {
		root.AppendChild(node)
	}

	newWalker(rc, r.proxy).walk(root)

	out := &bytes.Buffer{}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err = html.Render(out, c); err != nil {
			return "", fmt.Errorf("failed to serialize document: %w", err)
		}
	}
	return out.String(), nil
}

func (r *Renderer) recover(body string, rc Context) (output string, err error) {
	defer recoverPanic(&err)

	cleaned, err := r.recovery([]byte(body))
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(cleaned))
	if err != nil {
		return "", fmt.Errorf("failed to parse sanitized markup: %w", err)
	}
	bodySel := doc.Find("body")
	if bodySel.Length() == 0 {
		return "", fmt.Errorf("failed to locate document body")
	}

	newWalker(rc, r.proxy).walk(bodySel.Get(0))

	output, err = bodySel.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return output, nil
}

func escapeBody(body string) string {
	return `<p dir="auto">` + html.EscapeString(body) + `</p>`
}

// recoverPanic converts a panic in a render tier into an error so the next
// tier can run.
func recoverPanic(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("render panicked: %v\n%s", p, debug.Stack())
	}
}
