package catalog

import (
	"maps"
	"slices"
)

// Attributes is the sanitizer allow-list: tag name to the attribute names it
// may carry. Tags absent from the table are removed. No entry permits style,
// event handlers or scripting elements.
var Attributes = map[string][]string{
	"a": {
		"href", "target", "rel", "class", "title", "id",
		"data-author", "data-tag", "data-permlink", "data-filter", "data-community",
		"data-href", "data-witness", "data-proposal", "data-embed-src", "data-youtube",
		"data-start-time", "data-id", "data-is-inline",
	},
	"iframe": {
		"src", "width", "height", "frameborder", "allowfullscreen", "sandbox",
		"webkitallowfullscreen", "mozallowfullscreen", "allow", "class",
	},
	"video":      {"src", "poster", "controls", "width", "height", "class"},
	"img":        {"src", "alt", "title", "class", "itemprop", "loading", "decoding", "fetchpriority", "data-src"},
	"div":        {"class", "title", "id", "data-embed-src", "data-id"},
	"span":       {"class", "id"},
	"p":          {"dir", "class"},
	"blockquote": {"class", "data-id"},
	"td":         {"align", "colspan", "rowspan"},
	"th":         {"align", "colspan", "rowspan"},
	"code":       {"class"},
	"pre":        {"class"},
	"sub":        nil,
	"sup":        nil,
	"b":          nil,
	"i":          nil,
	"u":          nil,
	"q":          nil,
	"s":          nil,
	"del":        nil,
	"ins":        nil,
	"strike":     nil,
	"strong":     nil,
	"em":         nil,
	"hr":         nil,
	"br":         nil,
	"h1":         {"id"},
	"h2":         {"id"},
	"h3":         {"id"},
	"h4":         {"id"},
	"h5":         {"id"},
	"h6":         {"id"},
	"ul":         nil,
	"ol":         {"start"},
	"li":         nil,
	"dl":         nil,
	"dt":         nil,
	"dd":         nil,
	"table":      nil,
	"thead":      nil,
	"tbody":      nil,
	"tfoot":      nil,
	"tr":         nil,
	"center":     nil,
	"small":      nil,
	"big":        nil,
	"abbr":       {"title"},
	"kbd":        nil,
	"mark":       nil,
	"figure":     nil,
	"figcaption": nil,
	"details":    {"open"},
	"summary":    nil,
	"caption":    nil,
}

// Tags returns the allowed tag names in sorted order.
func Tags() []string {
	return slices.Sorted(maps.Keys(Attributes))
}
