package render

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	val, _ := getAttr(n, key)
	return val
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, keys ...string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(attr html.Attribute) bool {
		return attr.Namespace == "" && slices.Contains(keys, attr.Key)
	})
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attrValue(n, "class")), class)
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	existing := strings.TrimSpace(attrValue(n, "class"))
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", existing+" "+class)
}

// textContent concatenates all descendant text.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func setText(n *html.Node, text string) {
	removeChildren(n)
	n.AppendChild(newText(text))
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// newElement creates an element with attributes given as key, value pairs.
func newElement(tag atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func newText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// replaceNode swaps old for replacement in old's parent.
func replaceNode(old, replacement *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

func hasAncestor(n *html.Node, tags ...atom.Atom) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && slices.Contains(tags, p.DataAtom) {
			return true
		}
	}
	return false
}
