package proxy

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://images.example.com"

func TestProxify(t *testing.T) {
	t.Parallel()

	hash := base58.Encode([]byte("https://example.com/cat.jpg"))
	gifHash := base58.Encode([]byte("https://example.com/dance.gif"))

	tests := []struct {
		name   string
		src    string
		width  int
		height int
		format Format
		want   string
	}{
		{name: "empty", src: "", want: ""},
		{name: "not a url", src: "not a url", want: ""},
		{name: "relative", src: "/images/cat.jpg", want: ""},
		{name: "javascript", src: "javascript:alert(1)", want: ""},
		{
			name: "defaults omit query",
			src:  "https://example.com/cat.jpg",
			want: testBase + "/p/" + hash,
		},
		{
			name:   "sized webp",
			src:    "https://example.com/cat.jpg",
			width:  640,
			height: 480,
			format: FormatWebP,
			want:   testBase + "/p/" + hash + "?format=webp&height=480&width=640",
		},
		{
			name:   "gif ignores scaling",
			src:    "https://example.com/dance.gif",
			width:  640,
			format: FormatWebP,
			want:   testBase + "/p/" + gifHash,
		},
		{
			name: "nested url hashes the innermost",
			src:  "https://other-proxy.com/0x0/https://example.com/cat.jpg",
			want: testBase + "/p/" + hash,
		},
		{
			name: "legacy host rebased",
			src:  "https://images.hive.blog/0x0/https://example.com/cat.jpg",
			want: testBase + "/0x0/https://example.com/cat.jpg",
		},
		{
			name: "legacy host reserved prefix",
			src:  "https://steemitimages.com/DQmHash/cat.jpg",
			want: testBase + "/p/" + base58.Encode([]byte("https://steemitimages.com/DQmHash/cat.jpg")),
		},
		{
			name:  "already proxied keeps hash",
			src:   testBase + "/p/abc123.webp?format=webp",
			width: 100,
			want:  testBase + "/p/abc123?width=100",
		},
		{
			name:   "already proxied gif ignores scaling",
			src:    testBase + "/p/" + gifHash + "?format=png",
			width:  640,
			height: 480,
			format: FormatWebP,
			want:   testBase + "/p/" + gifHash,
		},
	}
	b := New(testBase + "/")
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.want, b.Proxify(test.src, test.width, test.height, test.format))
		})
	}
}

func TestProxifyDeterministic(t *testing.T) {
	t.Parallel()

	b := New(testBase)
	srcs := []string{
		"https://example.com/cat.jpg",
		"https://example.com/a/b/c.png?x=1&y=2",
		"http://example.com/dance.GIF",
		"https://images.hive.blog/DQm/x.jpg",
	}
	for _, src := range srcs {
		first := b.Proxify(src, 320, 0, FormatWebP)
		require.NotEmpty(t, first)
		assert.Equal(t, first, b.Proxify(src, 320, 0, FormatWebP))

		again := b.Proxify(first, 320, 0, FormatWebP)
		assert.Equal(t, hashOf(first), hashOf(again), src)
	}
}

func hashOf(proxied string) string {
	_, rest, _ := strings.Cut(proxied, "/p/")
	rest, _, _ = strings.Cut(rest, "?")
	return rest
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Format{"": FormatMatch, "match": FormatMatch, "PNG": FormatPNG, "webp": FormatWebP} {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("avif")
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, "webp", FormatWebP.String())
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultBase, New("").Base())
	b := New(testBase)
	assert.True(t, b.IsProxied(testBase+"/p/abc"))
	assert.False(t, b.IsProxied("https://images.example.com.evil/p/abc"))
	assert.True(t, IsGIF("https://example.com/a.gif?x=1"))
	assert.False(t, IsGIF("https://example.com/gif.png"))
}
