// Package content contains transformers that turn post bodies into HTML and
// plain text.
package content

// Options configures [RenderPipeline].
type Options struct {
	// ForApp protects character references from the markdown stage.
	ForApp bool
	// HighlightStyle names a chroma style for fenced code, or "" for none.
	HighlightStyle string
}

// RenderPipeline composes the stages that turn a raw post body into HTML
// ready for DOM parsing. The output is _not_ sanitized.
func RenderPipeline(opts Options) TransformerFunc {
	var markdown Transformer = MarkdownToHTML(opts.HighlightStyle)
	if opts.ForApp {
		markdown = WithEntityPlaceholders(markdown)
	}
	return Chain(
		NormalizeNewlines(),
		RewriteAliases(),
		StripFooters(),
		markdown,
		DedupeAttributes(),
	)
}
