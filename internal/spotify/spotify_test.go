package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackID(t *testing.T) {
	const want = "4uLU6hMCjMI75M1A2tKUQC"
	for _, in := range []string{
		"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
		"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123",
		"https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
		" https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC/ ",
	} {
		got, err := ParseTrackID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestParseTrackIDRejects(t *testing.T) {
	for _, in := range []string{
		"https://music.apple.com/track/123",
		"https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
		"https://open.spotify.com/track/",
		"not a url",
	} {
		_, err := ParseTrackID(in)
		assert.ErrorIs(t, err, ErrNotTrackURL, in)
	}
}

func TestTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracks/abc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Here Comes the Sun","artists":[{"name":"The Beatles"}],"album":{"images":[{"url":"https://i.scdn.co/image/large"},{"url":"https://i.scdn.co/image/small"}]}}`))
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), baseURL: srv.URL}
	details, err := c.Track(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "Here Comes the Sun", details.Title)
	assert.Equal(t, "The Beatles", details.Artist)
	assert.Equal(t, "https://i.scdn.co/image/large", details.AlbumCover)
}

func TestTrackWithoutArtists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Untitled","artists":[],"album":{"images":[]}}`))
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), baseURL: srv.URL}
	details, err := c.Track(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "", details.Artist)
	assert.Equal(t, "", details.AlbumCover)
}

func TestTrackAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), baseURL: srv.URL}
	_, err := c.Track(context.Background(), "missing")
	assert.Error(t, err)
}
