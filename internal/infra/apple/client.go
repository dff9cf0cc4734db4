// Package apple provides an Apple Music catalog search client.
package apple

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tunecast/tunecast/internal/domain/track"
)

// Client is an Apple Music API client.
type Client struct {
	developerToken string
	storefront     string
	baseURL        string
	httpClient     *http.Client
}

// Config represents Apple Music client configuration.
type Config struct {
	DeveloperToken string `mapstructure:"developer_token"`
	Storefront     string `mapstructure:"storefront" default:"us" validate:"omitempty,len=2"`
}

// searchResponse represents the catalog search response.
type searchResponse struct {
	Results struct {
		Songs struct {
			Data []struct {
				ID         string `json:"id"`
				Attributes struct {
					Name       string `json:"name"`
					ArtistName string `json:"artistName"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"songs"`
	} `json:"results"`
}

// apiError represents an error response from the Apple Music API.
type apiError struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// New creates a new Apple Music client. A missing developer token is
// allowed; the client then reports itself as unconfigured.
func New(cfg Config) *Client {
	storefront := cfg.Storefront
	if storefront == "" {
		storefront = "us"
	}
	return &Client{
		developerToken: cfg.DeveloperToken,
		storefront:     storefront,
		baseURL:        "https://api.music.apple.com/v1",
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the catalog name.
func (c *Client) Name() string {
	return "apple"
}

// Configured reports whether a developer token is present.
func (c *Client) Configured() bool {
	return c.developerToken != ""
}

// SearchTrack searches the Apple Music catalog and returns the top song hit.
// A miss is (nil, nil), not an error.
// Reference: https://developer.apple.com/documentation/applemusicapi/search_for_catalog_resources
func (c *Client) SearchTrack(ctx context.Context, query string) (*track.Track, error) {
	if !c.Configured() {
		return nil, errors.New("apple music developer token is not configured")
	}
	if query == "" {
		return nil, errors.New("search query is required")
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("types", "songs")
	params.Set("limit", "1")

	reqURL := c.baseURL + "/catalog/" + c.storefront + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.developerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return nil, errors.Errorf("apple music API error %s: %s", apiErr.Errors[0].Status, apiErr.Errors[0].Title)
		}
		return nil, errors.Errorf("apple music API returned status %d", resp.StatusCode)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	songs := response.Results.Songs.Data
	if len(songs) == 0 {
		return nil, nil
	}

	return &track.Track{
		Service: track.ServiceApple,
		ID:      songs[0].ID,
		Name:    songs[0].Attributes.Name,
		Artist:  songs[0].Attributes.ArtistName,
	}, nil
}
