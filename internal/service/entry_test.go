package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		json  string
		image string
		tags  []string
	}{
		{
			name:  "object metadata",
			json:  `{"author":"alice","permlink":"p","body":"b","json_metadata":{"image":["https://a/x.png"],"tags":["hive"]}}`,
			image: "https://a/x.png",
			tags:  []string{"hive"},
		},
		{
			name:  "string metadata",
			json:  `{"author":"alice","permlink":"p","body":"b","json_metadata":"{\"image\":[\"https://a/y.png\"]}"}`,
			image: "https://a/y.png",
		},
		{
			name:  "single image string",
			json:  `{"author":"alice","permlink":"p","body":"b","json_metadata":{"image":"https://a/z.png","tags":"hive"}}`,
			image: "https://a/z.png",
			tags:  []string{"hive"},
		},
		{
			name: "malformed metadata",
			json: `{"author":"alice","permlink":"p","body":"b","json_metadata":"{not json"}`,
		},
		{
			name: "empty metadata",
			json: `{"author":"alice","permlink":"p","body":"b","json_metadata":""}`,
		},
		{
			name:  "mixed image list",
			json:  `{"author":"alice","permlink":"p","body":"b","json_metadata":{"image":[1,"  ","https://a/w.png"]}}`,
			image: "https://a/w.png",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			entry, err := DecodeEntry([]byte(test.json))
			require.NoError(t, err)
			assert.Equal(t, "alice", entry.Author)
			assert.Equal(t, "b", entry.Content())

			image, ok := entry.MetadataImage()
			assert.Equal(t, test.image != "", ok)
			assert.Equal(t, test.image, image)
			if test.tags != nil {
				assert.Equal(t, test.tags, []string(entry.JSONMetadata.Tags))
			}
		})
	}

	_, err := DecodeEntry([]byte(`{"author":`))
	require.ErrorContains(t, err, "failed to decode entry")
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := &ContentEntry{Author: "alice", Permlink: "p", LastUpdate: "1", Updated: "2"}
	b := *a
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Updated = "3"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	b = *a
	b.LastUpdate = "3"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
