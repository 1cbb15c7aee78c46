package render

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stolasapp/calliope/internal/catalog"
	"github.com/stolasapp/calliope/internal/refs"
)

// Each pattern captures the leading context in group 1 and the linked text
// in group 2; the context is left as plain text.
var (
	// internalRefPattern matches @author/permlink written inline.
	internalRefPattern = regexp.MustCompile(`(?i)(^|\s)(/?@([\w.\d-]+)/([a-z\d][-a-z\d]*))`)

	// mentionPattern matches @author not preceded by a word character or
	// address punctuation, so e-mail addresses are left alone.
	mentionPattern = regexp.MustCompile(`(^|[^\w!#$%&*@/])(@([a-zA-Z][-.a-zA-Z\d]+[a-zA-Z\d]))`)

	// hashtagPattern matches #tag at the start of the text or after a space.
	hashtagPattern = regexp.MustCompile(`(^|\s|>)(#([-a-zA-Z\d]+))`)

	// imageURLPattern matches bare image URLs in running text.
	imageURLPattern = regexp.MustCompile(`()(` + catalog.ImageInTextPattern.String() + `)`)

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// segment is either plain text or a finished node.
type segment struct {
	text string
	node *html.Node
}

type linker func(groups []string) *html.Node

// text linkifies mentions, tags, post references and image URLs in a text
// node. Text inside links and code is left alone.
func (w *walker) text(n *html.Node) {
	if n.Parent == nil || hasAncestor(n, atom.A, atom.Code, atom.Pre) {
		return
	}

	segments := []segment{{text: n.Data}}
	segments = linkify(segments, internalRefPattern, w.internalRef)
	segments = linkify(segments, mentionPattern, w.mention)
	segments = linkify(segments, hashtagPattern, w.hashtag)
	segments = linkify(segments, imageURLPattern, w.inlineImage)
	if len(segments) == 1 && segments[0].node == nil {
		return
	}

	for _, seg := range segments {
		node := seg.node
		if node == nil {
			if seg.text == "" {
				continue
			}
			node = newText(seg.text)
		}
		n.Parent.InsertBefore(node, n)
	}
	n.Parent.RemoveChild(n)
}

// linkify splits the plain-text segments around matches of pattern. A nil
// node from link leaves the match as text.
func linkify(segments []segment, pattern *regexp.Regexp, link linker) []segment {
	var out []segment
	for _, seg := range segments {
		if seg.node != nil {
			out = append(out, seg)
			continue
		}
		text := seg.text
		last := 0
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = text[loc[2*i]:loc[2*i+1]]
				}
			}
			node := link(groups)
			if node == nil {
				continue
			}
			// loc[4] is the start of the linked text after the context group
			out = append(out, segment{text: text[last:loc[4]]}, segment{node: node})
			last = loc[5]
		}
		out = append(out, segment{text: text[last:]})
	}
	return out
}

func (w *walker) internalRef(groups []string) *html.Node {
	author := strings.ToLower(groups[3])
	rest := groups[4]
	if !refs.IsValidUsername(author) {
		return nil
	}
	display := "@" + author + "/" + rest

	if catalog.IsProfileSection(rest) {
		section := strings.ToLower(rest)
		href := refs.ProfilePath(author, section)
		if w.ctx.ForApp {
			href = "https://" + w.ctx.parentDomain() + href
		}
		a := newElement(atom.A, "class", "markdown-profile-link", "href", href)
		a.AppendChild(newText(display))
		return a
	}

	permlink := strings.ToLower(rest)
	if !refs.IsValidPermlink(permlink) {
		return nil
	}
	a := newElement(atom.A, "class", "markdown-post-link")
	if w.ctx.ForApp {
		setAttr(a, "data-tag", "post")
		setAttr(a, "data-author", author)
		setAttr(a, "data-permlink", permlink)
	} else {
		setAttr(a, "href", refs.PostPath("post", author, permlink))
	}
	a.AppendChild(newText("@" + author + "/" + permlink))
	return a
}

func (w *walker) mention(groups []string) *html.Node {
	author := strings.ToLower(groups[3])
	if !refs.IsValidUsername(author) {
		return nil
	}
	a := newElement(atom.A, "class", "markdown-author-link")
	if w.ctx.ForApp {
		setAttr(a, "data-author", author)
	} else {
		setAttr(a, "href", refs.ProfilePath(author, ""))
	}
	a.AppendChild(newText(groups[2]))
	return a
}

func (w *walker) hashtag(groups []string) *html.Node {
	tag := strings.ToLower(groups[3])
	if digitsOnly.MatchString(tag) {
		return nil
	}
	a := newElement(atom.A, "class", "markdown-tag-link")
	if w.ctx.ForApp {
		setAttr(a, "data-tag", tag)
	} else {
		setAttr(a, "href", refs.TopicPath("trending", tag))
	}
	a.AppendChild(newText(groups[2]))
	return a
}

func (w *walker) inlineImage(groups []string) *html.Node {
	return w.newImage(groups[2])
}
