package kick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/channels/xqc", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"slug":"xqc","chatroom":{"id":281473,"channel_id":1}}`))
	}))
	defer srv.Close()

	resolver := NewChannelResolver(srv.URL)
	id, err := resolver.Resolve(context.Background(), "xqc")
	require.NoError(t, err)
	require.Equal(t, int64(281473), id)
}

func TestResolveChannelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	resolver := NewChannelResolver(srv.URL)
	_, err := resolver.Resolve(context.Background(), "ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestResolveChannelBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chatroom":{}}`))
	}))
	defer srv.Close()

	resolver := NewChannelResolver(srv.URL)
	_, err := resolver.Resolve(context.Background(), "empty")
	require.Error(t, err)
}

func TestResolveChannelUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	resolver := NewChannelResolver(srv.URL)
	_, err := resolver.Resolve(context.Background(), "blocked")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
