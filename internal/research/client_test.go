package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSendsProviderRequest(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(Response{
			Answer: "Acme raised a Series B.",
			Results: []Result{
				{Title: "Series B", URL: "https://example.com/b", Content: "Round details.", PublishedDate: "2026-02-01"},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient("tvly-key", WithBaseURL(srv.URL), WithSearchDepth("basic"))
	resp, err := c.Search(context.Background(), "Acme Robotics funding")
	require.NoError(t, err)

	assert.Equal(t, "tvly-key", got.APIKey)
	assert.Equal(t, "Acme Robotics funding", got.Query)
	assert.Equal(t, "basic", got.SearchDepth)
	assert.True(t, got.IncludeAnswer)

	assert.Equal(t, "Acme Robotics funding", resp.Query)
	assert.Equal(t, "Acme raised a Series B.", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://example.com/b", resp.Results[0].URL)
}

func TestSearchSurfacesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPClient("tvly-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "Acme Robotics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSearchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient("tvly-key", WithBaseURL(srv.URL))
	_, err := c.Search(ctx, "Acme Robotics")
	require.Error(t, err)
}
