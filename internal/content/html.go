package content

import (
	"regexp"
	"slices"

	"github.com/microcosm-cc/bluemonday"

	"github.com/stolasapp/calliope/internal/catalog"
)

var (
	// nbspPattern matches both the HTML entity &nbsp; (case insensitive) and
	// the actual unicode non-breaking space character (U+00A0).
	nbspPattern = regexp.MustCompile("(?i)&nbsp;|\xc2\xa0")

	// idAttr restricts element ids to simple identifiers so user content
	// cannot collide with or target the host page's own anchors.
	idAttr = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9_]*$`)

	// httpURL matches absolute http(s) URLs, case insensitive.
	httpURL = regexp.MustCompile(`(?i)^https?://`)

	// mediaAttrs are URL-bearing attributes that must stay absolute http(s)
	// regardless of the relative-URL allowance for links.
	mediaAttrs = []string{"src", "poster", "data-src", "data-embed-src", "data-href"}
)

// NormalizeNBSP replaces non-breaking space entities and characters with
// regular spaces.
func NormalizeNBSP() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		return nbspPattern.ReplaceAll(input, []byte{' '}), nil
	}
}

// SanitizeHTML applies the allow-list in [catalog.Attributes], stripping
// unsupported tags and attributes. The output is stable under repeated
// application.
func SanitizeHTML() TransformerFunc {
	htmlSanitizer := sanitizer()
	return func(input []byte) ([]byte, error) {
		return htmlSanitizer.SanitizeBytes(input), nil
	}
}

// sanitizer builds a policy from [catalog.Attributes].
// Beyond the table:
//
//   - Links may be relative, or use the http, https and mailto schemes
//   - Media sources must be absolute http(s)
//   - id attributes must be simple identifiers
//   - Script and style bodies are dropped along with their tags
func sanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()

	policy.RequireParseableURLs(true)
	policy.AllowRelativeURLs(true)
	policy.AllowURLSchemes("http", "https", "mailto")
	policy.SkipElementsContent("script", "style")

	for _, tag := range catalog.Tags() {
		policy.AllowElements(tag)
		for _, attr := range catalog.Attributes[tag] {
			switch {
			case attr == "id":
				policy.AllowAttrs(attr).Matching(idAttr).OnElements(tag)
			case slices.Contains(mediaAttrs, attr):
				policy.AllowAttrs(attr).Matching(httpURL).OnElements(tag)
			default:
				policy.AllowAttrs(attr).OnElements(tag)
			}
		}
	}

	return policy
}
