package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "simple", input: "alice", valid: true},
		{name: "digits and dash", input: "good-karma2", valid: true},
		{name: "dotted", input: "foo.bar", valid: true},
		{name: "max length", input: "abcdefghijklmnop", valid: true},
		{name: "too short", input: "ab", valid: false},
		{name: "too long", input: "abcdefghijklmnopq", valid: false},
		{name: "uppercase", input: "Alice", valid: false},
		{name: "leading digit", input: "1alice", valid: false},
		{name: "trailing dash", input: "alice-", valid: false},
		{name: "double dash", input: "al--ice", valid: false},
		{name: "short label", input: "ab.cde", valid: false},
		{name: "empty label", input: "abc..def", valid: false},
		{name: "underscore", input: "al_ice", valid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateUsername(test.input)
			if test.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidUsername)
			}
			assert.Equal(t, test.valid, IsValidUsername(test.input))
		})
	}
}

func TestValidatePermlink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "simple", input: "my-first-post", valid: true},
		{name: "query stripped", input: "my-post?ref=feed", valid: true},
		{name: "fragment stripped", input: "my-post#comments", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "only query", input: "?x=1", valid: false},
		{name: "image name", input: "photo.png", valid: false},
		{name: "uppercase", input: "My-Post", valid: false},
		{name: "slash", input: "a/b", valid: false},
		{name: "too long", input: string(make([]byte, 256)), valid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePermlink(test.input)
			if test.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidPermlink)
			}
			assert.Equal(t, test.valid, IsValidPermlink(test.input))
		})
	}
}

func TestSanitizePermlink(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "post", SanitizePermlink("post?a=b#c"))
	assert.Equal(t, "post", SanitizePermlink("post#c?a=b"))
	assert.Equal(t, "post", SanitizePermlink("post"))
}

func TestParseRef(t *testing.T) {
	t.Parallel()

	ref, err := ParseRef("@alice/my-post")
	require.NoError(t, err)
	assert.Equal(t, Ref{Author: "alice", Permlink: "my-post"}, ref)
	assert.Equal(t, "@alice/my-post", ref.String())

	ref, err = ParseRef("hive-123/@bob.dev/hello")
	require.NoError(t, err)
	assert.Equal(t, Ref{Tag: "hive-123", Author: "bob.dev", Permlink: "hello"}, ref)

	_, err = ParseRef("alice/my-post")
	require.ErrorIs(t, err, ErrInvalidRef)

	_, err = ParseRef("@a/my-post")
	require.ErrorIs(t, err, ErrInvalidRef)
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestPaths(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/hive-1/@alice/post", PostPath("hive-1", "alice", "post"))
	assert.Equal(t, "/@alice", ProfilePath("alice", ""))
	assert.Equal(t, "/@alice/wallet", ProfilePath("alice", "wallet"))
	assert.Equal(t, "/trending/photography", TopicPath("trending", "photography"))
}
