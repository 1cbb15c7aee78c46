package render

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stolasapp/calliope/internal/catalog"
	"github.com/stolasapp/calliope/internal/refs"
)

var (
	// scriptSchemes are URL schemes that execute instead of navigating.
	scriptSchemes = []string{"javascript:", "vbscript:", "data:"}

	// schemeNoise is stripped before scheme checks; browsers ignore it.
	schemeNoise = regexp.MustCompile(`[\x00-\x20\x7f]+`)

	// startTime matches YouTube start offsets such as 90, 90s or 1m30s.
	startTime = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(\d+)s?$`)
)

func hasScriptScheme(href string) bool {
	href = strings.ToLower(schemeNoise.ReplaceAllString(href, ""))
	for _, scheme := range scriptSchemes {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

// anchor classifies a link against the catalog and rewrites it. The first
// matching rule wins.
func (w *walker) anchor(n *html.Node) *html.Node {
	href := strings.TrimSpace(attrValue(n, "href"))
	if href == "" {
		return n
	}
	if hasClass(n, "markdown-author-link") || hasClass(n, "markdown-tag-link") {
		return n
	}
	if hasScriptScheme(html.UnescapeString(href)) {
		removeAttr(n, "href")
		return n
	}

	link := catalog.Link{Href: href, Text: strings.TrimSpace(textContent(n))}
	match := catalog.Classify(link)
	switch match.Kind {
	case catalog.KindImage, catalog.KindIPFS:
		img := w.newImage(href)
		replaceNode(n, img)
		return nil
	case catalog.KindPost:
		w.postLink(n, link, match)
	case catalog.KindMention:
		w.mentionLink(n, match.Author)
	case catalog.KindProfileSection:
		w.profileLink(n, match.Author, match.Section)
	case catalog.KindTopic:
		w.topicLink(n, match.Filter, strings.ToLower(match.Tag))
	case catalog.KindCommunity:
		w.communityLink(n, match)
	case catalog.KindCollection:
		w.collectionLink(n, match)
	case catalog.KindWitnessVote:
		addClass(n, "markdown-witnesses-link")
		setAttr(n, "data-witness", match.ID)
		setAttr(n, "data-href", href)
		removeAttr(n, "href")
	case catalog.KindProposalVote:
		addClass(n, "markdown-proposal-link")
		setAttr(n, "data-proposal", match.ID)
		setAttr(n, "data-href", href)
		removeAttr(n, "href")
	case catalog.KindEmbed:
		if match.Provider.Name == catalog.ProviderTwitter {
			return w.tweet(n, href)
		}
		w.embed(n, href, match)
		return nil
	default:
		w.external(n, href)
	}
	return n
}

func (w *walker) postLink(n *html.Node, link catalog.Link, match catalog.Match) {
	permlink := refs.SanitizePermlink(match.Permlink)
	if !refs.IsValidPermlink(permlink) {
		return
	}
	author := strings.ToLower(match.Author)
	tag := match.Tag

	addClass(n, "markdown-post-link")
	if link.Text == link.Href {
		setText(n, "@"+author+"/"+permlink)
	}
	if !w.ctx.ForApp {
		setAttr(n, "href", refs.PostPath(tag, author, permlink))
		return
	}

	removeAttr(n, "href")
	setAttr(n, "data-tag", tag)
	setAttr(n, "data-author", author)
	setAttr(n, "data-permlink", permlink)
	if _, err := refs.ParseRef(link.Text); err == nil && n.Parent != nil {
		n.Parent.InsertBefore(newElement(atom.Br), n)
	}
}

func (w *walker) mentionLink(n *html.Node, author string) {
	author = strings.ToLower(author)
	if !refs.IsValidUsername(author) {
		return
	}
	addClass(n, "markdown-author-link")
	if w.ctx.ForApp {
		removeAttr(n, "href")
		setAttr(n, "data-author", author)
		return
	}
	setAttr(n, "href", refs.ProfilePath(author, ""))
}

func (w *walker) profileLink(n *html.Node, author, section string) {
	author = strings.ToLower(author)
	if !refs.IsValidUsername(author) {
		return
	}
	addClass(n, "markdown-profile-link")
	href := refs.ProfilePath(author, section)
	if w.ctx.ForApp {
		href = "https://" + w.ctx.parentDomain() + href
	}
	setAttr(n, "href", href)
}

func (w *walker) topicLink(n *html.Node, filter, tag string) {
	addClass(n, "markdown-tag-link")
	if w.ctx.ForApp {
		removeAttr(n, "href")
		setAttr(n, "data-filter", filter)
		setAttr(n, "data-tag", tag)
		return
	}
	setAttr(n, "href", refs.TopicPath(filter, tag))
}

func (w *walker) communityLink(n *html.Node, match catalog.Match) {
	addClass(n, "markdown-community-link")
	if w.ctx.ForApp {
		removeAttr(n, "href")
		setAttr(n, "data-community", match.Community)
		setAttr(n, "data-filter", match.Filter)
		return
	}
	setAttr(n, "href", refs.TopicPath(match.Filter, match.Community))
}

func (w *walker) collectionLink(n *html.Node, match catalog.Match) {
	author := strings.ToLower(match.Author)
	permlink := refs.SanitizePermlink(match.Permlink)
	if !refs.IsValidUsername(author) {
		return
	}
	addClass(n, "markdown-collection-link")
	if w.ctx.ForApp {
		removeAttr(n, "href")
		setAttr(n, "data-tag", "ccc")
		setAttr(n, "data-author", author)
		setAttr(n, "data-permlink", permlink)
		return
	}
	setAttr(n, "href", "/ccc/"+author+"/"+permlink)
}

// embed turns a bare provider link into an inert placeholder that the
// client upgrades to a player on demand.
func (w *walker) embed(n *html.Node, href string, match catalog.Match) {
	provider := match.Provider
	removeAttr(n, "href", "target", "rel")
	setAttr(n, "class", "markdown-video-link markdown-video-link-"+provider.Name)
	setAttr(n, "data-embed-src", provider.EmbedSrc(match.Captures, w.ctx.parentDomain()))
	removeChildren(n)

	if provider.Name == catalog.ProviderYouTube {
		setAttr(n, "data-youtube", match.ID)
		if start := youtubeStart(href); start != "" {
			setAttr(n, "data-start-time", start)
		}
	}
	if thumb := provider.Thumbnail(match.Captures); thumb != "" {
		if proxied := w.proxy.Proxify(thumb, 0, 0, w.ctx.imageFormat()); proxied != "" {
			n.AppendChild(newElement(atom.Img, "class", "no-replace video-thumbnail", "src", proxied))
		}
	}
	n.AppendChild(newElement(atom.Span, "class", "markdown-video-play"))
}

// tweet wraps the link in the blockquote the embed script looks for.
func (w *walker) tweet(n *html.Node, href string) *html.Node {
	quote := newElement(atom.Blockquote, "class", "twitter-tweet")
	replaceNode(n, quote)
	quote.AppendChild(n)
	w.external(n, href)
	return nil
}

func (w *walker) external(n *html.Node, href string) {
	addClass(n, "markdown-external-link")
	if w.ctx.ForApp {
		removeAttr(n, "href")
		if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
			href = "https://" + w.ctx.parentDomain() + href
		}
		setAttr(n, "data-href", href)
		return
	}
	setAttr(n, "target", "_blank")
	setAttr(n, "rel", w.ctx.externalRel())
}

// youtubeStart extracts the start offset in seconds from t or start.
func youtubeStart(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	query := u.Query()
	value := query.Get("t")
	if value == "" {
		value = query.Get("start")
	}
	groups := startTime.FindStringSubmatch(value)
	if groups == nil {
		return ""
	}
	seconds := 0
	for i, unit := range []int{3600, 60, 1} {
		if v, err := strconv.Atoi(groups[i+1]); err == nil {
			seconds += v * unit
		}
	}
	if seconds == 0 {
		return ""
	}
	return strconv.Itoa(seconds)
}
