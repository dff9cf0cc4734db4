// Package youtube provides a YouTube Data API search client.
package youtube

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tunecast/tunecast/internal/domain/track"
)

// Client is a YouTube Data API v3 client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Config represents YouTube client configuration.
type Config struct {
	APIKey string `mapstructure:"api_key"`
}

// searchResponse represents the search.list response.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// apiError represents an error response from the YouTube Data API.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a new YouTube client. A missing API key is allowed;
// the client then reports itself as unconfigured.
func New(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    "https://www.googleapis.com/youtube/v3",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the catalog name.
func (c *Client) Name() string {
	return "youtube"
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchTrack searches YouTube for a video matching the query and returns
// the top hit. A miss is (nil, nil), not an error.
// Reference: https://developers.google.com/youtube/v3/docs/search/list
func (c *Client) SearchTrack(ctx context.Context, query string) (*track.Track, error) {
	if !c.Configured() {
		return nil, errors.New("youtube API key is not configured")
	}
	if query == "" {
		return nil, errors.New("search query is required")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("key", c.apiKey)

	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

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
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != 0 {
			return nil, errors.Errorf("youtube API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, errors.Errorf("youtube API returned status %d", resp.StatusCode)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	if len(response.Items) == 0 || response.Items[0].ID.VideoID == "" {
		return nil, nil
	}

	item := response.Items[0]
	// Snippet text comes back HTML-escaped
	return &track.Track{
		Service: track.ServiceYouTube,
		ID:      item.ID.VideoID,
		Name:    html.UnescapeString(item.Snippet.Title),
		Artist:  html.UnescapeString(item.Snippet.ChannelTitle),
	}, nil
}
