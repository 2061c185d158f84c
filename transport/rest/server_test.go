package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	t.Run("Ping", func(t *testing.T) {
		// When: calling /ping
		resp, err := http.Get(srv.URL + "/ping")
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: the server answers pong
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", string(body))
	})

	t.Run("Ping refuses POST", func(t *testing.T) {
		// When: posting to /ping
		resp, err := http.Post(srv.URL+"/ping", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: the method is not allowed
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("Metrics", func(t *testing.T) {
		// When: scraping /metrics
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: the default registry is exposed
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "go_goroutines")
	})
}
