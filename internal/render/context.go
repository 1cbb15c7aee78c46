package render

import (
	"github.com/stolasapp/calliope/internal/catalog"
	"github.com/stolasapp/calliope/internal/proxy"
)

// Outbound links from authors at or above both thresholds are trusted and
// lose the nofollow and ugc rel values.
const (
	TrustedReputation = 40
	TrustedPayout     = 5
)

const (
	relTrusted   = "noopener"
	relUntrusted = "nofollow ugc noopener"
)

// Context is the per-call render configuration. It is never mutated by the
// renderer.
type Context struct {
	// ForApp emits data-* attributes for client-side routing instead of
	// site-relative hrefs.
	ForApp bool
	// PreferWebP requests WebP from the image proxy.
	PreferWebP bool
	// ParentDomain is the host embedding the output, required by some
	// players. Empty selects [catalog.DefaultSiteDomain].
	ParentDomain string
	// SEO, when set, enables the trusted-author link exception.
	SEO *SEO
}

// SEO carries the author signals used to decide outbound link rel values.
type SEO struct {
	AuthorReputation float64
	PostPayout       float64
}

// Trusted reports whether both signals clear the trust thresholds.
func (s *SEO) Trusted() bool {
	return s != nil && s.AuthorReputation >= TrustedReputation && s.PostPayout > TrustedPayout
}

func (c Context) parentDomain() string {
	if c.ParentDomain == "" {
		return catalog.DefaultSiteDomain
	}
	return c.ParentDomain
}

func (c Context) imageFormat() proxy.Format {
	if c.PreferWebP {
		return proxy.FormatWebP
	}
	return proxy.FormatMatch
}

func (c Context) externalRel() string {
	if c.SEO.Trusted() {
		return relTrusted
	}
	return relUntrusted
}

// Outcome records which tier of the render cascade produced the output.
type Outcome int

const (
	// OutcomePrimary is the full markdown and transform pipeline.
	OutcomePrimary Outcome = iota
	// OutcomeRecovered is the sanitize-first retry after a primary failure.
	OutcomeRecovered
	// OutcomeEscaped is the escaped-text last resort.
	OutcomeEscaped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePrimary:
		return "primary"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeEscaped:
		return "escaped"
	default:
		return "unknown"
	}
}
