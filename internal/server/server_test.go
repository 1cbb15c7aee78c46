package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestDefaultTimeouts(t *testing.T) {
	t.Parallel()

	timeouts := DefaultTimeouts(3 * time.Second)
	assert.Equal(t, ReadHeaderTimeout, timeouts.ReadHeader)
	assert.Equal(t, 8*time.Second, timeouts.Write)
	assert.Equal(t, WriteTimeout, DefaultTimeouts(0).Write)
}

func TestServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	grp, ctx := errgroup.WithContext(ctx)

	listener, err := Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { //nolint:gosec // Serve() sets timeouts
		_, _ = io.WriteString(w, "ok")
	})}
	Serve(ctx, grp, srv, listener, DefaultTimeouts(time.Second))
	assert.Equal(t, ReadTimeout, srv.ReadTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+listener.Addr().String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	cancel()
	require.NoError(t, grp.Wait())
}
