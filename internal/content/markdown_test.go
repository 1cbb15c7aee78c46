package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()
	toHTML := MarkdownToHTML("")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "soft breaks become br",
			input: "hello\nworld",
			want:  "<p>hello<br>\nworld</p>\n",
		},
		{
			name:  "bare urls are linked",
			input: "see https://example.com",
			want:  "<p>see <a href=\"https://example.com\">https://example.com</a></p>\n",
		},
		{
			name:  "raw html passes through",
			input: "<center>x</center>",
			want:  "<center>x</center>\n",
		},
		{
			name:  "headings get ids",
			input: "# Hello World",
			want:  "<h1 id=\"hello-world\">Hello World</h1>\n",
		},
		{
			name:  "strikethrough",
			input: "~~gone~~",
			want:  "<p><del>gone</del></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := toHTML([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarkdownToHTMLHighlighting(t *testing.T) {
	t.Parallel()

	got, err := MarkdownToHTML("monokai")([]byte("```go\nfunc main() {}\n```"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `class="chroma"`)
	assert.NotContains(t, string(got), "style=")
}

func TestValidateHighlightStyle(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateHighlightStyle(""))
	require.NoError(t, ValidateHighlightStyle("monokai"))
	require.ErrorIs(t, ValidateHighlightStyle("no-such-style"), ErrUnknownHighlightStyle)
}

func TestRenderPipeline(t *testing.T) {
	t.Parallel()

	site := RenderPipeline(Options{})
	got, err := site([]byte("Hello\r\n<a href=\"https://a.com\" href=\"https://b.com\">x</a>\r\n\r\nPosted with [Ecency](https://ecency.com)"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello<br>\n<a href=\"https://a.com\">x</a></p>\n", string(got))

	app := RenderPipeline(Options{ForApp: true})
	got, err = app([]byte("Tom &amp; Jerry"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Tom &amp; Jerry</p>\n", string(got))
}
