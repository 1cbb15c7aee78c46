package content

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"mvdan.cc/xurls/v2"
)

// PlatformWeb is the summary platform that keeps the text as rendered.
const PlatformWeb = "web"

var (
	// urlPattern finds scheme-qualified URLs in the extracted text.
	urlPattern = xurls.Strict()

	// whitespaceRun collapses newlines, tabs and repeated spaces.
	whitespaceRun = regexp.MustCompile(`\s+`)

	// zeroWidth matches zero-width spaces and joiners that native text views
	// render as boxes.
	zeroWidth = regexp.MustCompile("[\u200b\u200c\u200d\u2060\ufeff]")
)

// Summarize reduces a post body to plain text truncated to at most length
// characters on a word boundary. A length of zero or less disables
// truncation. Platforms other than [PlatformWeb] also get non-breaking
// spaces normalized and zero-width characters removed.
func Summarize(length int, platform string) TransformerFunc {
	toHTML := Chain(NormalizeNewlines(), StripFooters(), MarkdownToHTML(""))
	normalizeNBSP := NormalizeNBSP()

	return func(input []byte) ([]byte, error) {
		rendered, err := toHTML(input)
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rendered))
		if err != nil {
			return nil, fmt.Errorf("failed to parse rendered HTML: %w", err)
		}

		text := doc.Text()
		text = urlPattern.ReplaceAllString(text, "")
		if platform != PlatformWeb {
			normalized, err := normalizeNBSP([]byte(text))
			if err != nil {
				return nil, err
			}
			text = zeroWidth.ReplaceAllString(string(normalized), "")
		}
		text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
		return []byte(truncateWords(text, length)), nil
	}
}

// truncateWords keeps whole words while the result fits in limit runes. A
// first word longer than limit is cut mid-word.
func truncateWords(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	var out strings.Builder
	size := 0
	for i, word := range strings.Fields(text) {
		wordSize := utf8.RuneCountInString(word)
		if i == 0 && wordSize > limit {
			return string([]rune(word)[:limit])
		}
		if i > 0 {
			wordSize++
		}
		if size+wordSize > limit {
			break
		}
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(word)
		size += wordSize
	}
	return out.String()
}
