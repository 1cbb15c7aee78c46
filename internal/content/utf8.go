package content

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// utf8BOM is the UTF-8 byte order mark that some editors add to files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// minChardetConfidence is the minimum confidence level required to trust
// chardet's detection over the declared or sniffed encoding.
const minChardetConfidence = 50

// DecodeBody converts a submitted post body to UTF-8. The contentType may be
// empty, in which case the body is treated as Markdown text.
//
// Detection strategy:
//  1. Use charset.DetermineEncoding (BOM, Content-Type charset, meta tags)
//  2. If that is uncertain and the body is not HTML, ask chardet
//  3. Decode, strip the BOM and replace any remaining invalid sequences
func DecodeBody(contentType string) TransformerFunc {
	if contentType == "" {
		contentType = "text/markdown"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	isText := strings.HasPrefix(mediaType, "text/") && mediaType != "text/html"

	return func(input []byte) ([]byte, error) {
		enc, name, certain := charset.DetermineEncoding(input, contentType)
		if !certain && isText {
			if detected, detectedName := sniffEncoding(input); detected != nil {
				enc, name = detected, detectedName
			}
		}
		if !certain {
			slog.Debug("body encoding uncertain",
				slog.String("encoding", name),
				slog.String("content_type", contentType))
		}

		output, err := decode(input, enc)
		if err != nil {
			return nil, err
		}
		output = bytes.TrimPrefix(output, utf8BOM)
		return bytes.ToValidUTF8(output, []byte("�")), nil
	}
}

// sniffEncoding uses ICU-based statistical detection. It returns nil when
// the input is already UTF-8 or confidence is too low.
func sniffEncoding(input []byte) (encoding.Encoding, string) {
	result, err := chardet.NewTextDetector().DetectBest(input)
	if err != nil || result.Confidence < minChardetConfidence {
		return nil, ""
	}
	if strings.EqualFold(result.Charset, "UTF-8") {
		return nil, ""
	}

	// chardet sometimes returns names not in the HTML index
	enc, err := htmlindex.Get(result.Charset)
	if err != nil {
		return nil, ""
	}

	slog.Debug("body encoding detected",
		slog.String("charset", result.Charset),
		slog.Int("confidence", result.Confidence))
	return enc, result.Charset
}

func decode(input []byte, enc encoding.Encoding) ([]byte, error) {
	if enc == encoding.Nop || enc == unicode.UTF8 {
		return input, nil
	}
	output, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode body to UTF-8: %w", err)
	}
	return output, nil
}
