package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stolasapp/calliope/internal/proxy"
)

// walker carries the state of a single traversal. It is created per render
// call and never shared.
type walker struct {
	ctx   Context
	proxy *proxy.Builder

	firstImageFound bool
}

func newWalker(ctx Context, builder *proxy.Builder) *walker {
	return &walker{ctx: ctx, proxy: builder}
}

// walk visits every child of n depth-first. The child list is captured
// before visiting so transformers may replace the node they are given.
func (w *walker) walk(n *html.Node) {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for _, child := range children {
		if child.Parent != n {
			continue
		}
		if next := w.visit(child); next != nil {
			w.walk(next)
		}
	}
}

// visit dispatches n to its transformer. It returns the node whose children
// should be walked next, or nil when the transformer produced finished
// markup.
func (w *walker) visit(n *html.Node) *html.Node {
	switch n.Type {
	case html.TextNode:
		w.text(n)
		return nil
	case html.ElementNode:
		switch n.DataAtom {
		case atom.A:
			return w.anchor(n)
		case atom.Iframe:
			w.iframe(n)
			return nil
		case atom.Img:
			w.image(n)
			return nil
		case atom.P:
			return w.paragraph(n)
		}
		return n
	}
	return nil
}

func (w *walker) paragraph(n *html.Node) *html.Node {
	if _, ok := getAttr(n, "dir"); !ok {
		setAttr(n, "dir", "auto")
	}
	return n
}
