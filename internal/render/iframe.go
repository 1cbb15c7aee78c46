package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stolasapp/calliope/internal/catalog"
)

// frameAttrs are the attributes kept on an accepted iframe.
var frameAttrs = []string{"src", "width", "height"}

// iframe accepts players from known providers, normalizing their source,
// and replaces anything else with a visible placeholder. Frames without a
// usable source are dropped.
func (w *walker) iframe(n *html.Node) {
	src := strings.TrimSpace(attrValue(n, "src"))
	if src == "" || hasScriptScheme(html.UnescapeString(src)) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	provider, ok := catalog.FrameProvider(src)
	if ok {
		var normalized string
		if normalized, ok = provider.NormalizeFrame(src, w.ctx.parentDomain()); ok {
			w.acceptFrame(n, provider, normalized)
			return
		}
	}

	placeholder := newElement(atom.Div, "class", "unsupported-iframe")
	placeholder.AppendChild(newText("(Unsupported " + src + ")"))
	replaceNode(n, placeholder)
}

func (w *walker) acceptFrame(n *html.Node, provider *catalog.Provider, src string) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		for _, key := range frameAttrs {
			if attr.Namespace == "" && attr.Key == key {
				kept = append(kept, attr)
				break
			}
		}
	}
	n.Attr = kept
	removeChildren(n)

	setAttr(n, "src", src)
	setAttr(n, "frameborder", "0")
	setAttr(n, "allowfullscreen", "allowfullscreen")
	if provider.Sandbox != "" {
		setAttr(n, "sandbox", provider.Sandbox)
	}
}
