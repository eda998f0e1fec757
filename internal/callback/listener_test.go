package callback_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/UniPro-tech/UniQUE-Auth/internal/callback"
)

func startListener(t *testing.T) *callback.Listener {
	t.Helper()
	l, err := callback.NewListener("127.0.0.1:0", "/callback", zerolog.Nop())
	require.NoError(t, err)
	go func() { _ = l.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.Shutdown(ctx)
	})
	return l
}

func TestListenerDeliversCode(t *testing.T) {
	l := startListener(t)

	resp, err := http.Get(l.URL() + "?code=abc123&state=st-1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case res := <-l.Results():
		require.False(t, res.Failed())
		require.Equal(t, "abc123", res.Code)
		require.Equal(t, "st-1", res.State)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
}

func TestListenerDeliversError(t *testing.T) {
	l := startListener(t)

	resp, err := http.Get(l.URL() + "?error=access_denied&error_description=user%20said%20no")
	require.NoError(t, err)
	resp.Body.Close()

	res := <-l.Results()
	require.True(t, res.Failed())
	require.Equal(t, "access_denied", res.Err)
	require.Equal(t, "user said no", res.ErrDescription)
}

func TestListenerMissingCodeIsAnError(t *testing.T) {
	l := startListener(t)

	resp, err := http.Get(l.URL())
	require.NoError(t, err)
	resp.Body.Close()

	res := <-l.Results()
	require.True(t, res.Failed())
	require.Equal(t, "invalid_request", res.Err)
}
