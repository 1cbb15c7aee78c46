package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/calliope/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "calliope.yaml")
	cmd := RootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "Check out @alice and #hive-167922", "render", "--site")
	require.NoError(t, err)
	assert.Contains(t, out, `href="/@alice"`)
	assert.Contains(t, out, `href="/trending/hive-167922"`)

	out, err = execute(t, "hi @alice", "render")
	require.NoError(t, err)
	assert.Contains(t, out, `data-author="alice"`)

	out, err = execute(t, "[x](https://example.com)", "render", "--site", "--reputation", "70", "--payout", "10")
	require.NoError(t, err)
	assert.Contains(t, out, `rel="noopener"`)
	assert.NotContains(t, out, "nofollow")
}

func TestRenderCommandFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfhello @bob"), 0o600))

	out, err := execute(t, "", "render", "--site", path)
	require.NoError(t, err)
	assert.Contains(t, out, `href="/@bob"`)
	assert.NotContains(t, out, "\ufeff")

	_, err = execute(t, "", "render", filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorContains(t, err, "failed to read input")
}

func TestRenderCommandEntry(t *testing.T) {
	t.Parallel()

	entry := `{"author":"alice","permlink":"p","body":"![a](https://example.com/a.png)",` +
		`"json_metadata":{"image":["https://example.com/lead.png"]},"last_update":"1","updated":"1"}`
	out, err := execute(t, entry, "image", "--entry", "--width", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "width=100")

	_, err = execute(t, "{", "render", "--entry")
	require.ErrorContains(t, err, "failed to decode entry")
}

func TestSummaryCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "# Hello\n\nworld of words", "summary", "--length", "11")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", out)
}

func TestImageCommand(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "no images", "image")
	require.ErrorIs(t, err, errNoImage)

	_, err = execute(t, "x", "image", "--format", "tiff")
	require.Error(t, err)
}

func TestProxifyCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "proxify", "https://example.com/a.png", "--format", "webp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://images.ecency.com/p/"))
	assert.Contains(t, out, "format=webp")

	out, err = execute(t, "", "--proxy-base", "https://img.example.org", "proxify", "https://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://img.example.org/p/"))

	_, err = execute(t, "", "proxify", "not a url")
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "validate", "username", "alice")
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = execute(t, "", "validate", "permlink", "photo.jpg")
	require.Error(t, err)
}

func TestBenchCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "bench", "--count", "5", "--seed", "1", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "pass 1: 5 posts")
	assert.Contains(t, out, "pass 2: 5 posts")
}

func TestConfigOverrides(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "--cache-capacity", "0", "config", "show")
	require.ErrorIs(t, err, config.ErrInvalidCapacity)

	out, err := execute(t, "", "--cache-capacity", "7", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cache_capacity: 7")
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "calliope.yaml")
	run := func(stdin string) error {
		cmd := RootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs([]string{"--config", path, "config", "init"})
		return cmd.ExecuteContext(t.Context())
	}

	require.NoError(t, run(""))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("cache_capacity: 9\n"), 0o600))
	require.NoError(t, run("n\n"))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.CacheCapacity)

	require.NoError(t, run("y\n"))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.CacheCapacity)
}
