// Package refs validates and formats references to accounts, posts and
// topics on the chain.
package refs

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// ErrInvalidUsername is returned for malformed account names.
	ErrInvalidUsername = Error("invalid username")
	// ErrInvalidPermlink is returned for malformed permlinks.
	ErrInvalidPermlink = Error("invalid permlink")
	// ErrInvalidRef is returned for malformed @author/permlink references.
	ErrInvalidRef = Error("invalid reference")
)

const (
	minUsernameLength = 3
	maxUsernameLength = 16
	minLabelLength    = 3
	maxPermlinkLength = 255

	postPathFormat    = "/%s/@%s/%s"
	profilePathFormat = "/@%s"
	sectionPathFormat = "/@%s/%s"
	topicPathFormat   = "/%s/%s"
)

var (
	labelPattern    = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)
	permlinkPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	imageExtension  = regexp.MustCompile(`(?i)\.(?:tiff?|jpe?g|gif|png|svg|ico|heic|webp)$`)
	refPattern      = regexp.MustCompile(`^(?:([\w-]+)/)?@([\w.\d-]+)/([\w.\d-]+)$`)
)

// Error is an error type for reference validation failures.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Ref is a structured post reference.
type Ref struct {
	Tag      string
	Author   string
	Permlink string
}

// ValidateUsername checks an account name against the chain's naming rules:
// 3 to 16 characters of dot separated labels, each at least 3 characters,
// starting with a letter, ending alphanumeric, and free of double dashes.
func ValidateUsername(name string) error {
	if len(name) < minUsernameLength || len(name) > maxUsernameLength {
		return fmt.Errorf("%w: %q must be between %d and %d characters",
			ErrInvalidUsername, name, minUsernameLength, maxUsernameLength)
	}
	for label := range strings.SplitSeq(name, ".") {
		switch {
		case len(label) < minLabelLength:
			return fmt.Errorf("%w: %q has a segment shorter than %d characters",
				ErrInvalidUsername, name, minLabelLength)
		case strings.Contains(label, "--"):
			return fmt.Errorf("%w: %q has a segment with consecutive dashes", ErrInvalidUsername, name)
		case !labelPattern.MatchString(label):
			return fmt.Errorf("%w: segment %q does not match pattern `%s`",
				ErrInvalidUsername, label, labelPattern.String())
		}
	}
	return nil
}

// IsValidUsername reports whether name passes [ValidateUsername].
func IsValidUsername(name string) bool {
	return ValidateUsername(name) == nil
}

// SanitizePermlink drops any query string or fragment from a permlink.
func SanitizePermlink(permlink string) string {
	if i := strings.IndexAny(permlink, "?#"); i >= 0 {
		return permlink[:i]
	}
	return permlink
}

// ValidatePermlink checks a permlink, after [SanitizePermlink], against the
// chain's rules. Permlinks that look like image file names are rejected.
func ValidatePermlink(permlink string) error {
	permlink = SanitizePermlink(permlink)
	switch {
	case permlink == "":
		return fmt.Errorf("%w: empty", ErrInvalidPermlink)
	case len(permlink) > maxPermlinkLength:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidPermlink, maxPermlinkLength)
	case imageExtension.MatchString(permlink):
		return fmt.Errorf("%w: %q names an image file", ErrInvalidPermlink, permlink)
	case !permlinkPattern.MatchString(permlink):
		return fmt.Errorf("%w: %q does not match pattern `%s`",
			ErrInvalidPermlink, permlink, permlinkPattern.String())
	}
	return nil
}

// IsValidPermlink reports whether permlink passes [ValidatePermlink].
func IsValidPermlink(permlink string) bool {
	return ValidatePermlink(permlink) == nil
}

// ParseRef parses "@author/permlink" or "tag/@author/permlink".
func ParseRef(s string) (Ref, error) {
	matches := refPattern.FindStringSubmatch(s)
	if len(matches) == 0 {
		return Ref{}, fmt.Errorf("%w: %q does not match pattern `%s`", ErrInvalidRef, s, refPattern.String())
	}
	ref := Ref{Tag: matches[1], Author: matches[2], Permlink: matches[3]}
	if err := ValidateUsername(ref.Author); err != nil {
		return Ref{}, fmt.Errorf("%w: %w", ErrInvalidRef, err)
	}
	if err := ValidatePermlink(ref.Permlink); err != nil {
		return Ref{}, fmt.Errorf("%w: %w", ErrInvalidRef, err)
	}
	return ref, nil
}

// String formats the reference as @author/permlink.
func (r Ref) String() string {
	return "@" + r.Author + "/" + r.Permlink
}

// PostPath formats the site path of a post.
func PostPath(tag, author, permlink string) string {
	return fmt.Sprintf(postPathFormat, tag, author, permlink)
}

// ProfilePath formats the site path of an account, optionally a section of it.
func ProfilePath(author, section string) string {
	if section == "" {
		return fmt.Sprintf(profilePathFormat, author)
	}
	return fmt.Sprintf(sectionPathFormat, author, section)
}

// TopicPath formats the site path of a tag or community feed.
func TopicPath(filter, tag string) string {
	return fmt.Sprintf(topicPathFormat, filter, tag)
}
