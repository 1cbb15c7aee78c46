package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// image normalizes an <img>: unsafe and sizing attributes are removed, the
// source is validated and routed through the proxy, and loading hints are
// set so only the first image in the document loads eagerly.
func (w *walker) image(n *html.Node) {
	removeAttr(n, "onerror", "dynsrc", "lowsrc", "width", "height")

	src, hasSrc := getAttr(n, "src")
	if hasSrc && !acceptableImageSource(src) {
		removeAttr(n, "src")
		hasSrc = false
	}

	setAttr(n, "itemprop", "image")
	if !w.firstImageFound {
		w.firstImageFound = true
		setAttr(n, "loading", "eager")
		setAttr(n, "fetchpriority", "high")
	} else {
		setAttr(n, "loading", "lazy")
		setAttr(n, "decoding", "async")
	}

	if !hasSrc || hasClass(n, "no-replace") || w.proxy.IsProxied(src) {
		return
	}
	if proxied := w.proxy.Proxify(strings.TrimSpace(src), 0, 0, w.ctx.imageFormat()); proxied != "" {
		setAttr(n, "src", proxied)
	}
}

// acceptableImageSource rejects script schemes, the literal "x" placeholder
// used in injection payloads, and relative paths that are not rooted.
func acceptableImageSource(src string) bool {
	decoded := strings.TrimSpace(html.UnescapeString(src))
	lower := strings.ToLower(decoded)
	switch {
	case hasScriptScheme(lower), lower == "x", lower == "":
		return false
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return true
	default:
		return strings.HasPrefix(decoded, "/") && !strings.HasPrefix(decoded, "//")
	}
}

// newImage builds the <img> that replaces a bare image link. App output
// defers loading to the client by carrying the proxied source in data-src.
func (w *walker) newImage(url string) *html.Node {
	img := newElement(atom.Img, "class", "markdown-img-link", "src", url)
	w.image(img)
	if src, ok := getAttr(img, "src"); ok && w.ctx.ForApp {
		removeAttr(img, "src")
		setAttr(img, "data-src", src)
	}
	return img
}
