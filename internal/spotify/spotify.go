// Package spotify looks up track metadata for song links attached to notices.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenURL = "https://accounts.spotify.com/api/token"
	apiURL   = "https://api.spotify.com/v1"
)

// ErrNotTrackURL is returned for links that are not open.spotify.com track links
var ErrNotTrackURL = errors.New("invalid Spotify track URL")

// TrackDetails is the subset of track metadata shown on a notice
type TrackDetails struct {
	Title      string
	Artist     string
	AlbumCover string
}

type trackResponse struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

// Client calls the Spotify Web API with an app token
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client that fetches and refreshes its token with the
// client-credentials grant
func NewClient(clientID, clientSecret string) *Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 5 * time.Second

	return &Client{httpClient: httpClient, baseURL: apiURL}
}

// ParseTrackID extracts the track id from a share link such as
// https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc
func ParseTrackID(songURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(songURL))
	if err != nil || !strings.HasSuffix(u.Host, "spotify.com") {
		return "", ErrNotTrackURL
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "track" && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", ErrNotTrackURL
}

// Track fetches title, first artist and largest album image
func (c *Client) Track(ctx context.Context, trackID string) (*TrackDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tracks/"+url.PathEscape(trackID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build track request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify API error: %s", resp.Status)
	}

	var track trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}

	details := &TrackDetails{Title: track.Name}
	if len(track.Artists) > 0 {
		details.Artist = track.Artists[0].Name
	}
	if len(track.Album.Images) > 0 {
		details.AlbumCover = track.Album.Images[0].URL
	}
	return details, nil
}
