package audiodb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
)

const defaultTimeout = 10 * time.Second

// Client queries TheAudioDB for artist metadata and trending charts.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client from configuration.
func NewClient() *Client {
	conf := config.Get()
	return &Client{
		baseURL:    conf.Configuration.AudioDBAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SearchArtist returns the first artist matching the name, or nil when
// the service knows no such artist.
func (c *Client) SearchArtist(ctx context.Context, artist string) (*Artist, error) {
	params := url.Values{}
	params.Set("s", artist)
	requestURL := c.baseURL + "/search.php?" + params.Encode()

	log.Debugf("%s Looking up artist: %s", logcolors.LogArtist, artist)

	var resp searchResponse
	if err := c.getJSON(ctx, requestURL, &resp); err != nil {
		return nil, err
	}
	if len(resp.Artists) == 0 {
		return nil, nil
	}
	return &resp.Artists[0], nil
}

// Trending returns the current iTunes singles chart. A failure yields
// an empty list, never an error: the chart is decorative.
func (c *Client) Trending(ctx context.Context) []TrendingTrack {
	requestURL := c.baseURL + "/trending.php?country=us&type=itunes&format=singles"

	var resp trendingResponse
	if err := c.getJSON(ctx, requestURL, &resp); err != nil {
		log.Warnf("%s Trending chart fetch failed: %v", logcolors.LogTrending, err)
		return []TrendingTrack{}
	}
	if resp.Trending == nil {
		return []TrendingTrack{}
	}
	return resp.Trending
}

func (c *Client) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
