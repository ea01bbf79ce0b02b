package resolver

import (
	"context"
	"errors"
	"fmt"
)

// TrackQuery is the immutable input to one resolution attempt.
type TrackQuery struct {
	Title    string
	Artist   string
	Album    string // optional, empty means unknown
	Year     int    // optional, 0 means unknown
	Language string // BCP-47-ish code, "en" by default

	// ExcludedIDs holds hit ids that previous attempts selected and the
	// caller rejected (wrong-song feedback). Hits with these ids never
	// enter scoring.
	ExcludedIDs map[string]bool
}

// SearchHit is one result record from the search service.
type SearchHit struct {
	ID          string
	Title       string
	Artist      string
	Album       string // empty when the service reports no album
	ReleaseYear int    // 0 when the service reports no release date
	URL         string
	FullTitle   string
}

// LyricsResult is the pipeline's sole successful output.
type LyricsResult struct {
	Text     string `json:"lyrics"`
	SourceID string `json:"sourceId"`
}

// SearchClient issues a single search request for one query string.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// PageFetcher retrieves song page markup and probes candidate URLs.
type PageFetcher interface {
	// FetchPage returns the raw HTML of the page at url.
	FetchPage(ctx context.Context, url string) (string, error)

	// Probe reports whether a GET of url succeeds. Used to test for the
	// existence of translated page variants.
	Probe(ctx context.Context, url string) bool
}

// ErrNoResult is the single outcome every terminal pipeline condition
// collapses to. Callers must treat it as "lyrics unavailable" and never
// infer a specific cause from it; stage-specific reasons are logged only.
var ErrNoResult = errors.New("no lyrics result")

// ResolveError carries the stage-specific failure reason for logging
// before it is flattened into ErrNoResult at the pipeline boundary.
type ResolveError struct {
	Stage   string
	Message string
	Err     error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
