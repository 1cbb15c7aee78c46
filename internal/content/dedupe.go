package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// DedupeAttributes rewrites start tags that repeat an attribute name so only
// the first occurrence remains. All other markup is copied through verbatim.
func DedupeAttributes() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		tokenizer := html.NewTokenizer(bytes.NewReader(input))
		output := &bytes.Buffer{}
		output.Grow(len(input))
		for {
			tokenType := tokenizer.Next()
			if tokenType == html.ErrorToken {
				if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
					return nil, fmt.Errorf("failed to tokenize HTML: %w", err)
				}
				return output.Bytes(), nil
			}

			// Raw is invalidated by Token, so keep a copy
			raw := bytes.Clone(tokenizer.Raw())
			if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
				output.Write(raw)
				continue
			}

			token := tokenizer.Token()
			attrs, changed := uniqueAttrs(token.Attr)
			if !changed {
				output.Write(raw)
				continue
			}
			token.Attr = attrs
			output.WriteString(token.String())
		}
	}
}

func uniqueAttrs(attrs []html.Attribute) ([]html.Attribute, bool) {
	if len(attrs) < 2 {
		return attrs, false
	}
	seen := make(map[string]struct{}, len(attrs))
	unique := make([]html.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		key := attr.Namespace + ":" + attr.Key
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, attr)
	}
	return unique, len(unique) != len(attrs)
}
