package content

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"mvdan.cc/xurls/v2"
)

// ErrUnknownHighlightStyle is returned for highlight styles chroma does not
// know about.
const ErrUnknownHighlightStyle = Error("unknown highlight style")

// Error is an error type for content configuration failures.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// MarkdownToHTML converts a post body written in GitHub-flavored Markdown
// into HTML. Soft line breaks become <br> and bare URLs become links. Raw
// HTML in the body is passed through, so the output is _not_ sanitized.
//
// If highlightStyle is non-empty, fenced code blocks are tokenized with
// chroma and emitted with CSS classes rather than inline styles.
func MarkdownToHTML(highlightStyle string) TransformerFunc {
	extensions := []goldmark.Extender{
		extension.NewLinkify(
			extension.WithLinkifyAllowedProtocols([][]byte{
				[]byte("http:"),
				[]byte("https:"),
			}),
			extension.WithLinkifyURLRegexp(xurls.Strict()),
		),
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.CJK,
	}
	if highlightStyle != "" {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(highlightStyle),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}

	markdown := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)

	return func(input []byte) ([]byte, error) {
		output := &bytes.Buffer{}
		if err := markdown.Convert(input, output); err != nil {
			return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
		}
		return output.Bytes(), nil
	}
}

// ValidateHighlightStyle checks that style names a registered chroma style.
// The empty string disables highlighting and is always valid.
func ValidateHighlightStyle(style string) error {
	if style == "" {
		return nil
	}
	if _, ok := styles.Registry[style]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHighlightStyle, style)
	}
	return nil
}
