// Package catalog contains the fixed tables used to classify links, embeds
// and markup while rendering post bodies. Everything here is read-only.
package catalog

import (
	"slices"
	"strings"
)

// DefaultSiteDomain is the parent domain used when a render does not name one.
const DefaultSiteDomain = "ecency.com"

var (
	// whitelistDomains are the front-ends whose post, profile, topic and
	// community URLs are rewritten into internal references.
	whitelistDomains = []string{
		"3speak.tv",
		"buzz.d.buzz",
		"dapplr.in",
		"ecency.com",
		"hive.ausbit.dev",
		"hive.blog",
		"hiveblockexplorer.com",
		"hiveblocks.com",
		"hivesigner.com",
		"inleo.io",
		"leofinance.io",
		"liketu.com",
		"openhive.network",
		"peakd.com",
		"proofofbrain.io",
		"stemgeeks.net",
		"travelfeed.io",
		"waivio.com",
		"wallet.hive.blog",
	}

	// profileSections are the path segments following /@author that refer to a
	// profile page rather than a post permlink.
	profileSections = []string{
		"blog",
		"comments",
		"communities",
		"engine",
		"feed",
		"followers",
		"following",
		"insights",
		"points",
		"posts",
		"replies",
		"rewards",
		"settings",
		"trail",
		"wallet",
	}

	// TopicFilters are the feed sort orders that can prefix a tag path.
	TopicFilters = []string{"trending", "hot", "created", "promoted", "muted", "payout"}

	// Footers are signature lines appended by third-party clients. Any line
	// containing one of them (case-insensitive) is removed before rendering.
	Footers = []string{
		"Posted using [Partiko",
		"Posted using [Dapplr",
		"Posted Using [LeoFinance",
		"Posted Using [InLeo",
		"Posted via [neoxian",
		"Posted using [STEMGeeks",
		"Posted using [Bilpcoin",
		"Posted via [proofofbrain",
		"Posted via [weedcash",
		"Posted via [D.Buzz",
		"Posted with [STEMGeeks",
		"Posted using [WeedCash",
		"Posted via [MarLians",
		"Posted via [ctptalk",
		"Posted using [Ecency",
		"Posted with [Ecency",
		"Posted via [tribe.ecency",
		"<sub>Posted Using Aeneas.Blog",
		"Posted using [sportstalksocial",
	}

	// LinkAliases maps URL prefixes of aliasing front-ends to the internal
	// profile prefix they stand for.
	LinkAliases = []struct{ From, To string }{
		{"https://leofinance.io/threads/view/", "/@"},
		{"https://leofinance.io/posts/", "/@"},
		{"https://leofinance.io/threads/", "/@"},
		{"https://inleo.io/threads/view/", "/@"},
		{"https://inleo.io/posts/", "/@"},
		{"https://inleo.io/threads/", "/@"},
	}
)

// IsWhitelisted reports whether domain (optionally prefixed with "www.") is a
// front-end whose links are rewritten internally.
func IsWhitelisted(domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	return slices.Contains(whitelistDomains, domain)
}

// IsProfileSection reports whether the path segment names a profile section,
// ignoring any query string.
func IsProfileSection(segment string) bool {
	segment, _, _ = strings.Cut(segment, "?")
	return slices.Contains(profileSections, strings.ToLower(segment))
}
