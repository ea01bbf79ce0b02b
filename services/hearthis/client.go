package hearthis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
)

const defaultTimeout = 10 * time.Second

// Track is one entry of the hearthis.at feed.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"user_name"`
	Genre     string `json:"genre"`
	Artwork   string `json:"artwork_url"`
	Stream    string `json:"stream_url"`
	Duration  string `json:"duration"`
	Permalink string `json:"permalink_url"`
}

// Client reads public feeds from hearthis.at.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client from configuration.
func NewClient() *Client {
	conf := config.Get()
	return &Client{
		baseURL:    conf.Configuration.HearThisAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// PopularFeed returns one page of the popular feed. Failures yield an
// empty list so discovery endpoints degrade instead of erroring.
func (c *Client) PopularFeed(ctx context.Context, page, count int) []Track {
	if page <= 0 {
		page = 1
	}
	if count <= 0 {
		count = 20
	}

	params := url.Values{}
	params.Set("type", "popular")
	params.Set("page", strconv.Itoa(page))
	params.Set("count", strconv.Itoa(count))
	requestURL := c.baseURL + "/feed/?" + params.Encode()

	log.Debugf("%s Fetching popular feed (page %d, count %d)", logcolors.LogDiscover, page, count)

	tracks, err := c.fetchFeed(ctx, requestURL)
	if err != nil {
		log.Warnf("%s Popular feed fetch failed: %v", logcolors.LogDiscover, err)
		return []Track{}
	}
	return tracks
}

func (c *Client) fetchFeed(ctx context.Context, requestURL string) ([]Track, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// The feed is a bare JSON array of tracks
	var tracks []Track
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if tracks == nil {
		tracks = []Track{}
	}
	return tracks, nil
}
