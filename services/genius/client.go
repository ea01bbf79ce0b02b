package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/resolver"
)

const (
	// Song pages reject requests without a browser-looking agent
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// An HTML page can be large; cap reads so a misbehaving upstream
	// cannot exhaust memory.
	maxPageBytes = 4 << 20
)

// Client talks to the Genius search API and song pages. It implements
// both resolver.SearchClient and resolver.PageFetcher. The circuit
// breaker guards the search API only: song page fetches go to a
// different host and fail independently.
type Client struct {
	apiURL      string
	accessToken string
	apiClient   *http.Client
	pageClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
}

// NewClient builds a Client from configuration.
func NewClient() *Client {
	conf := config.Get()
	return &Client{
		apiURL:      conf.Configuration.GeniusAPIURL,
		accessToken: conf.Configuration.GeniusAccessToken,
		apiClient: &http.Client{
			Timeout: time.Duration(conf.Configuration.SearchTimeoutSecs) * time.Second,
		},
		pageClient: &http.Client{
			Timeout: time.Duration(conf.Configuration.PageTimeoutSecs) * time.Second,
		},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:      "genius-search",
			Threshold: conf.Configuration.CircuitBreakerThreshold,
			Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		}),
	}
}

// Breaker exposes the search circuit breaker for status endpoints.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Search runs one search API request and maps the hits to the
// resolver's representation. Hit order is preserved.
func (c *Client) Search(ctx context.Context, query string) ([]resolver.SearchHit, error) {
	if !c.breaker.Allow() {
		return nil, circuitbreaker.ErrCircuitOpen
	}

	params := url.Values{}
	params.Set("q", query)
	requestURL := c.apiURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	log.Debugf("%s Searching: %s", logcolors.LogSearch, query)

	resp, err := c.apiClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	c.breaker.RecordSuccess()

	hits := make([]resolver.SearchHit, 0, len(searchResp.Response.Hits))
	for _, h := range searchResp.Response.Hits {
		hits = append(hits, mapHit(h.Result))
	}
	return hits, nil
}

// mapHit flattens the API's nested result shape.
func mapHit(r songResult) resolver.SearchHit {
	hit := resolver.SearchHit{
		ID:        r.ID.String(),
		Title:     r.Title,
		Artist:    r.PrimaryArtist.Name,
		URL:       r.URL,
		FullTitle: r.FullTitle,
	}
	if r.Album != nil {
		hit.Album = r.Album.Name
	}
	if r.ReleaseDateComponents != nil {
		hit.ReleaseYear = r.ReleaseDateComponents.Year
	}
	return hit
}

// FetchPage retrieves the raw HTML of a song page.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	log.Debugf("%s Fetching page: %s", logcolors.LogPage, pageURL)

	resp, err := c.pageClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(body), nil
}

// Probe reports whether pageURL serves a successful response. Any
// transport error or non-200 status counts as absent.
func (c *Client) Probe(ctx context.Context, pageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.pageClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))

	return resp.StatusCode == http.StatusOK
}
