// Package spotify provides the Spotify catalog search client.
package spotify

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tunecast/tunecast/internal/domain/track"
)

// Client is a Spotify catalog search client.
// Each search performs a fresh client-credentials exchange; access tokens
// are not cached across calls.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// New creates a new Spotify client. Missing credentials are allowed;
// the client then reports itself as unconfigured and refuses searches.
func New(cfg Config) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     spotifyauth.TokenURL,
	}
}

// Name returns the catalog name.
func (c *Client) Name() string {
	return "spotify"
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// SearchTrack searches the Spotify catalog and returns the top track hit.
// A miss is (nil, nil), not an error.
func (c *Client) SearchTrack(ctx context.Context, query string) (*track.Track, error) {
	if !c.Configured() {
		return nil, errors.New("spotify credentials are not configured")
	}
	if query == "" {
		return nil, errors.New("search query is required")
	}

	cc := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL,
	}
	token, err := cc.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain access token")
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	client := spotify.New(httpClient)

	result, err := client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, nil
	}
	return convertTrack(&result.Tracks.Tracks[0]), nil
}

// convertTrack converts a Spotify FullTrack to the domain descriptor.
func convertTrack(t *spotify.FullTrack) *track.Track {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return &track.Track{
		Service: track.ServiceSpotify,
		ID:      string(t.ID),
		Name:    t.Name,
		Artist:  artist,
	}
}
