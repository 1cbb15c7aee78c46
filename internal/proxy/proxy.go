// Package proxy builds content-addressed image proxy URLs.
package proxy

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// ErrUnknownFormat is returned by [ParseFormat] for unrecognized names.
const ErrUnknownFormat = Error("unknown image format")

// DefaultBase is the image proxy used when none is configured.
const DefaultBase = "https://images.ecency.com"

// Error is an error type for proxy configuration failures.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Format selects the encoding the proxy serves.
type Format int

const (
	// FormatMatch keeps the source encoding.
	FormatMatch Format = iota
	FormatPNG
	FormatWebP
)

var formatNames = [...]string{
	FormatMatch: "match",
	FormatPNG:   "png",
	FormatWebP:  "webp",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatMatch]
	}
	return formatNames[f]
}

// ParseFormat resolves a format by name. The empty string is [FormatMatch].
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatMatch, nil
	}
	for i, candidate := range formatNames {
		if strings.EqualFold(candidate, name) {
			return Format(i), nil
		}
	}
	return FormatMatch, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// legacyHosts are image services whose URLs are rebased onto the proxy
// directly, except for paths under the reserved /D prefix.
var legacyHosts = []string{
	"https://images.hive.blog/",
	"https://steemitimages.com/",
}

var embeddedScheme = regexp.MustCompile(`https?://`)

// Builder turns image URLs into proxy URLs under a fixed base.
type Builder struct {
	base string
}

// New creates a Builder for base. A trailing slash is ignored and an empty
// base selects [DefaultBase].
func New(base string) *Builder {
	base = strings.TrimRight(base, "/")
	if base == "" {
		base = DefaultBase
	}
	return &Builder{base: base}
}

// Base returns the proxy base URL.
func (b *Builder) Base() string { return b.base }

// IsProxied reports whether src already points at the proxy.
func (b *Builder) IsProxied(src string) bool {
	return strings.HasPrefix(src, b.base+"/")
}

// Proxify returns the proxy URL for src. Zero width and height and
// [FormatMatch] are defaults and are left out of the query. It returns ""
// if src is not an absolute http(s) URL.
func (b *Builder) Proxify(src string, width, height int, format Format) string {
	if !isAbsoluteHTTP(src) {
		return ""
	}
	for _, host := range legacyHosts {
		if strings.HasPrefix(src, host) && !strings.HasPrefix(src, host+"D") {
			return b.base + "/" + strings.TrimPrefix(src, host)
		}
	}

	latest := latestURL(src)
	hash := b.extractHash(latest)
	origin := latest
	if hash == "" {
		hash = base58.Encode([]byte(latest))
	} else if decoded := base58.Decode(hash); len(decoded) > 0 {
		origin = string(decoded)
	}
	if IsGIF(origin) {
		width, height, format = 0, 0, FormatMatch
	}

	query := url.Values{}
	if format != FormatMatch {
		query.Set("format", format.String())
	}
	if width > 0 {
		query.Set("width", strconv.Itoa(width))
	}
	if height > 0 {
		query.Set("height", strconv.Itoa(height))
	}
	out := b.base + "/p/" + hash
	if len(query) > 0 {
		out += "?" + query.Encode()
	}
	return out
}

// extractHash returns the identifier of a URL already on the proxy.
func (b *Builder) extractHash(src string) string {
	rest, ok := strings.CutPrefix(src, b.base+"/p/")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, "?")
	rest = strings.TrimSuffix(rest, ".webp")
	rest = strings.TrimSuffix(rest, ".png")
	return rest
}

// latestURL strips concatenated URL prefixes, returning the innermost URL.
func latestURL(src string) string {
	locs := embeddedScheme.FindAllStringIndex(src, -1)
	if len(locs) < 2 {
		return src
	}
	return src[locs[len(locs)-1][0]:]
}

// IsGIF reports whether the URL path names a GIF file.
func IsGIF(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".gif")
}

func isAbsoluteHTTP(src string) bool {
	if src == "" {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
