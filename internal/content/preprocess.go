package content

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/stolasapp/calliope/internal/catalog"
)

// placeholderMark delimits entity placeholders. It is a zero-width
// non-joiner, which markdown treats as ordinary text.
const placeholderMark = "\u200c"

var (
	// Bodies authored on some clients carry CRLF or bare CR line endings,
	// which the hard-wrap rendering would otherwise double up.
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	// entityPattern matches named and numeric character references. These are
	// swapped out for placeholders around the markdown stage in app mode so
	// linkification cannot split or re-escape them.
	entityPattern = regexp.MustCompile(`&(?:[a-zA-Z][a-zA-Z0-9]{1,31}|#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6});`)

	// placeholderPattern matches the markers written by [WithEntityPlaceholders].
	placeholderPattern = regexp.MustCompile(placeholderMark + "([0-9]+)" + placeholderMark)
)

// footerMarkers are the lower-cased [catalog.Footers].
var footerMarkers = func() []string {
	markers := make([]string, len(catalog.Footers))
	for i, footer := range catalog.Footers {
		markers[i] = strings.ToLower(footer)
	}
	return markers
}()

// NormalizeNewlines converts all line endings to LF.
func NormalizeNewlines() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		if !bytes.ContainsRune(input, '\r') {
			return input, nil
		}
		return []byte(lineEndings.Replace(string(input))), nil
	}
}

// RewriteAliases replaces links on front-ends that alias profile paths with
// the internal profile prefix, so they are recognized as post references.
func RewriteAliases() TransformerFunc {
	pairs := make([]string, 0, 2*len(catalog.LinkAliases))
	for _, alias := range catalog.LinkAliases {
		pairs = append(pairs, alias.From, alias.To)
	}
	replacer := strings.NewReplacer(pairs...)
	return func(input []byte) ([]byte, error) {
		return []byte(replacer.Replace(string(input))), nil
	}
}

// StripFooters removes any line containing a known client signature.
func StripFooters() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		lines := bytes.Split(input, []byte("\n"))
		kept := lines[:0]
		for _, line := range lines {
			if !isFooter(line) {
				kept = append(kept, line)
			}
		}
		return bytes.Join(kept, []byte("\n")), nil
	}
}

func isFooter(line []byte) bool {
	lower := strings.ToLower(string(line))
	for _, marker := range footerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// WithEntityPlaceholders wraps inner so that character references in its
// input are replaced with opaque markers and restored in its output.
func WithEntityPlaceholders(inner Transformer) TransformerFunc {
	return func(input []byte) ([]byte, error) {
		var entities [][]byte
		input = entityPattern.ReplaceAllFunc(input, func(entity []byte) []byte {
			marker := placeholderMark + strconv.Itoa(len(entities)) + placeholderMark
			entities = append(entities, entity)
			return []byte(marker)
		})
		if len(entities) == 0 {
			return inner.Transform(input)
		}

		output, err := inner.Transform(input)
		if err != nil {
			return nil, err
		}
		return placeholderPattern.ReplaceAllFunc(output, func(marker []byte) []byte {
			idx, err := strconv.Atoi(string(marker[len(placeholderMark) : len(marker)-len(placeholderMark)]))
			if err != nil || idx >= len(entities) {
				return marker
			}
			return entities[idx]
		}), nil
	}
}
