package catalog

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// Kind identifies which rewrite an anchor receives.
type Kind int

const (
	KindExternal Kind = iota
	KindImage
	KindIPFS
	KindPost
	KindMention
	KindProfileSection
	KindTopic
	KindCommunity
	KindCollection
	KindWitnessVote
	KindProposalVote
	KindEmbed
)

var kindNames = map[Kind]string{
	KindExternal:       "external",
	KindImage:          "image",
	KindIPFS:           "ipfs",
	KindPost:           "post",
	KindMention:        "mention",
	KindProfileSection: "profile-section",
	KindTopic:          "topic",
	KindCommunity:      "community",
	KindCollection:     "collection",
	KindWitnessVote:    "witness-vote",
	KindProposalVote:   "proposal-vote",
	KindEmbed:          "embed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Link is the input to a matcher: the decoded href and the trimmed text of
// the anchor carrying it.
type Link struct {
	Href string
	Text string
}

// TextIsHref reports whether the anchor text is the URL itself, which is how
// bare pasted links present after markdown linkification.
func (l Link) TextIsHref() bool {
	return strings.TrimSpace(l.Text) == l.Href
}

// Match carries the captures of a successful classification. Fields not
// relevant to Kind are left empty.
type Match struct {
	Kind      Kind
	Matcher   string
	Provider  *Provider
	Domain    string
	Tag       string
	Author    string
	Permlink  string
	Section   string
	Filter    string
	Community string
	ID        string
	Captures  []string
}

// Matcher pairs a name with a pure classification function.
type Matcher struct {
	Name  string
	match func(Link) (Match, bool)
}

// Match runs the matcher against the link.
func (m Matcher) Match(link Link) (Match, bool) {
	res, ok := m.match(link)
	if ok {
		res.Matcher = m.Name
	}
	return res, ok
}

var (
	// ImagePattern matches hrefs that point directly at an image file.
	ImagePattern = regexp.MustCompile(`(?i)^https?://\S+\.(?:tiff?|jpe?g|gif|png|svg|ico|heic|webp)(?:[?#]\S*)?$`)
	// ImageInTextPattern finds image URLs inside running text.
	ImageInTextPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+?\.(?:tiff?|jpe?g|gif|png|svg|ico|heic|webp)(?:\?[^\s<>"']*)?`)
	// IPFSPattern matches gateway links to content-addressed files.
	IPFSPattern = regexp.MustCompile(`(?i)^https?://[^/]+/(ip[fn]s)/([^/?#]+)`)

	postPattern         = regexp.MustCompile(`(?i)^https?://([^/]+)/([^/@]+)/@([\w.\d-]+)/([^/]+)$`)
	mentionPattern      = regexp.MustCompile(`(?i)^https?://([^/]+)/@([\w.\d-]+)/?$`)
	authorPathPattern   = regexp.MustCompile(`(?i)^https?://([^/]+)/@([\w.\d-]+)/([^/]+)$`)
	internalTagPost     = regexp.MustCompile(`(?i)^/([^/@]+)/@([\w.\d-]+)/([^/]+)$`)
	internalMention     = regexp.MustCompile(`(?i)^/@([\w.\d-]+)/?$`)
	internalPost        = regexp.MustCompile(`(?i)^/@([\w.\d-]+)/([^/]+)$`)
	topicPattern        = regexp.MustCompile(`(?i)^https?://([^/]+)/(trending|hot|created|promoted|muted|payout)/([^/?#]+)/?$`)
	internalTopic       = regexp.MustCompile(`(?i)^/(trending|hot|created|promoted|muted|payout)/([^/?#]+)/?$`)
	communityPattern    = regexp.MustCompile(`(?i)^https?://([^/]+)/c/(hive-\d+)(?:/([a-z]+))?/?$`)
	collectionPattern   = regexp.MustCompile(`(?i)^https?://([^/]+)/ccc/([\w.\d-]+)/([^/]+)$`)
	witnessVotePattern  = regexp.MustCompile(`(?i)^https://hivesigner\.com/sign/account-witness-vote\?`)
	proposalVotePattern = regexp.MustCompile(`(?i)^https://hivesigner\.com/sign/update-proposal-votes\?`)
	proposalIDsPattern  = regexp.MustCompile(`^\[(\d+)\]$`)
)

// Links is the ordered matcher table applied to anchors. The first match
// wins; an unmatched href is an external link.
var Links = []Matcher{
	{Name: "image", match: matchImage},
	{Name: "ipfs", match: matchIPFS},
	{Name: "post", match: matchPost},
	{Name: "mention", match: matchMention},
	{Name: "author-path", match: matchAuthorPath},
	{Name: "internal-tag-post", match: matchInternalTagPost},
	{Name: "internal-mention", match: matchInternalMention},
	{Name: "internal-post", match: matchInternalPost},
	{Name: "topic", match: matchTopic},
	{Name: "internal-topic", match: matchInternalTopic},
	{Name: "community", match: matchCommunity},
	{Name: "collection", match: matchCollection},
	{Name: "witness-vote", match: matchWitnessVote},
	{Name: "proposal-vote", match: matchProposalVote},
	{Name: "embed", match: matchEmbed},
}

// Classify returns the first matching classification for link, falling back
// to KindExternal.
func Classify(link Link) Match {
	for _, m := range Links {
		if res, ok := m.Match(link); ok {
			return res
		}
	}
	return Match{Kind: KindExternal, Matcher: "external"}
}

func matchImage(link Link) (Match, bool) {
	if !link.TextIsHref() || !ImagePattern.MatchString(link.Href) {
		return Match{}, false
	}
	return Match{Kind: KindImage}, true
}

func matchIPFS(link Link) (Match, bool) {
	groups := IPFSPattern.FindStringSubmatch(link.Href)
	if groups == nil || !link.TextIsHref() {
		return Match{}, false
	}
	return Match{Kind: KindIPFS, ID: groups[2], Captures: groups}, true
}

func matchPost(link Link) (Match, bool) {
	groups := postPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	return Match{
		Kind:     KindPost,
		Domain:   groups[1],
		Tag:      groups[2],
		Author:   groups[3],
		Permlink: groups[4],
		Captures: groups,
	}, true
}

func matchMention(link Link) (Match, bool) {
	groups := mentionPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	return Match{Kind: KindMention, Domain: groups[1], Author: groups[2], Captures: groups}, true
}

func matchAuthorPath(link Link) (Match, bool) {
	groups := authorPathPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	return authorPath(groups[1], "post", groups[2], groups[3], groups), true
}

func matchInternalTagPost(link Link) (Match, bool) {
	groups := internalTagPost.FindStringSubmatch(link.Href)
	if groups == nil {
		return Match{}, false
	}
	return authorPath("", groups[1], groups[2], groups[3], groups), true
}

func matchInternalMention(link Link) (Match, bool) {
	groups := internalMention.FindStringSubmatch(link.Href)
	if groups == nil {
		return Match{}, false
	}
	return Match{Kind: KindMention, Author: groups[1], Captures: groups}, true
}

func matchInternalPost(link Link) (Match, bool) {
	groups := internalPost.FindStringSubmatch(link.Href)
	if groups == nil {
		return Match{}, false
	}
	return authorPath("", "post", groups[1], groups[2], groups), true
}

// authorPath resolves /@author/rest into either a profile section or a post.
func authorPath(domain, tag, author, rest string, groups []string) Match {
	if IsProfileSection(rest) {
		section, _, _ := strings.Cut(rest, "?")
		return Match{
			Kind:     KindProfileSection,
			Domain:   domain,
			Author:   author,
			Section:  strings.ToLower(section),
			Captures: groups,
		}
	}
	return Match{
		Kind:     KindPost,
		Domain:   domain,
		Tag:      tag,
		Author:   author,
		Permlink: rest,
		Captures: groups,
	}
}

func matchTopic(link Link) (Match, bool) {
	groups := topicPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	return Match{
		Kind:     KindTopic,
		Domain:   groups[1],
		Filter:   strings.ToLower(groups[2]),
		Tag:      groups[3],
		Captures: groups,
	}, true
}

func matchInternalTopic(link Link) (Match, bool) {
	groups := internalTopic.FindStringSubmatch(link.Href)
	if groups == nil {
		return Match{}, false
	}
	return Match{
		Kind:     KindTopic,
		Filter:   strings.ToLower(groups[1]),
		Tag:      groups[2],
		Captures: groups,
	}, true
}

func matchCommunity(link Link) (Match, bool) {
	groups := communityPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	filter := strings.ToLower(groups[3])
	// about, discord and unknown sections land on the newest posts
	if !slices.Contains(TopicFilters, filter) {
		filter = "created"
	}
	return Match{
		Kind:      KindCommunity,
		Domain:    groups[1],
		Community: strings.ToLower(groups[2]),
		Tag:       strings.ToLower(groups[2]),
		Filter:    filter,
		Captures:  groups,
	}, true
}

func matchCollection(link Link) (Match, bool) {
	groups := collectionPattern.FindStringSubmatch(link.Href)
	if groups == nil || !IsWhitelisted(groups[1]) {
		return Match{}, false
	}
	return Match{
		Kind:     KindCollection,
		Domain:   groups[1],
		Author:   groups[2],
		Permlink: groups[3],
		Captures: groups,
	}, true
}

func matchWitnessVote(link Link) (Match, bool) {
	if !link.TextIsHref() || !witnessVotePattern.MatchString(link.Href) {
		return Match{}, false
	}
	witness := queryParam(link.Href, "witness")
	if witness == "" {
		return Match{}, false
	}
	return Match{Kind: KindWitnessVote, ID: witness}, true
}

func matchProposalVote(link Link) (Match, bool) {
	if !link.TextIsHref() || !proposalVotePattern.MatchString(link.Href) {
		return Match{}, false
	}
	groups := proposalIDsPattern.FindStringSubmatch(queryParam(link.Href, "proposal_ids"))
	if groups == nil {
		return Match{}, false
	}
	return Match{Kind: KindProposalVote, ID: groups[1]}, true
}

func matchEmbed(link Link) (Match, bool) {
	if !link.TextIsHref() {
		return Match{}, false
	}
	for _, provider := range Providers {
		if provider.Link == nil {
			continue
		}
		if groups := provider.Link.FindStringSubmatch(link.Href); groups != nil {
			return Match{
				Kind:     KindEmbed,
				Provider: provider,
				ID:       groups[len(groups)-1],
				Captures: groups,
			}, true
		}
	}
	return Match{}, false
}

func queryParam(href, key string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
