package service

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Source is anything with a body to render.
type Source interface {
	Content() string
}

// Fingerprinted sources have a stable identity and are cached.
type Fingerprinted interface {
	Source
	Fingerprint() string
}

// Text is a raw body without identity. Rendering it bypasses the cache.
type Text string

// Content returns the text itself.
func (t Text) Content() string { return string(t) }

// ContentEntry is the part of a post or comment needed to render it.
type ContentEntry struct {
	Author       string   `json:"author"`
	Permlink     string   `json:"permlink"`
	Body         string   `json:"body"`
	JSONMetadata Metadata `json:"json_metadata"`
	LastUpdate   string   `json:"last_update"`
	Updated      string   `json:"updated"`
}

// Content returns the entry body.
func (e *ContentEntry) Content() string { return e.Body }

// Fingerprint identifies this revision of the entry.
func (e *ContentEntry) Fingerprint() string {
	return strings.Join([]string{e.Author, e.Permlink, e.LastUpdate, e.Updated}, "-")
}

// Metadata is the subset of json_metadata the renderer consults. It decodes
// from either an object or a string holding an encoded object; malformed
// metadata decodes as empty rather than failing the entry.
type Metadata struct {
	Image  stringList `json:"image,omitempty"`
	Tags   stringList `json:"tags,omitempty"`
	Links  stringList `json:"links,omitempty"`
	App    string     `json:"app,omitempty"`
	Format string     `json:"format,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = Metadata{}
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return nil //nolint:nilerr // malformed metadata is treated as absent
		}
		data = []byte(encoded)
	}
	type plain Metadata
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil //nolint:nilerr // malformed metadata is treated as absent
	}
	*m = Metadata(decoded)
	return nil
}

// FirstImage returns the first declared image, if any.
func (m Metadata) FirstImage() (string, bool) {
	for _, image := range m.Image {
		if image = strings.TrimSpace(image); image != "" {
			return image, true
		}
	}
	return "", false
}

// stringList decodes from a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = stringList{single}
		return nil
	}
	var values []any
	if err := json.Unmarshal(data, &values); err != nil {
		*l = nil
		return nil //nolint:nilerr // non-list values are ignored
	}
	out := make(stringList, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// DecodeEntry parses a JSON-encoded ContentEntry.
func DecodeEntry(data []byte) (*ContentEntry, error) {
	entry := &ContentEntry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	return entry, nil
}
