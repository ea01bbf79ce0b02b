package resolver

import (
	"context"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/stats"
)

// Resolver runs the full resolution pipeline: query synthesis, concurrent
// search aggregation, weighted candidate selection, translation
// substitution, page fetch and lyric extraction. It holds no per-call
// state and is safe for concurrent use; the only cross-call state is the
// caller-supplied ExcludedIDs, which it reads but never mutates.
type Resolver struct {
	search SearchClient
	pages  PageFetcher
	floor  int
}

// New builds a Resolver with the confidence floor from configuration.
func New(search SearchClient, pages PageFetcher) *Resolver {
	conf := config.Get()
	return &Resolver{
		search: search,
		pages:  pages,
		floor:  conf.Configuration.MinMatchScore,
	}
}

// Resolve finds and extracts the lyrics for the target track. Every
// terminal condition (no hits, sub-floor confidence, page fetch failure,
// no lyric container) collapses to ErrNoResult; the specific reason is
// only logged. The resolver performs no caching.
func (r *Resolver) Resolve(ctx context.Context, target TrackQuery) (*LyricsResult, error) {
	if target.Language == "" {
		target.Language = "en"
	}

	stats.Get().RecordResolveAttempt()
	log.Infof("%s Resolving lyrics for %q by %q (language: %s, %d excluded ids)",
		logcolors.LogRequest, target.Title, target.Artist, target.Language, len(target.ExcludedIDs))

	queries := SynthesizeQueries(target.Title, target.Artist, target.Album, target.Year)
	hits := r.aggregateSearch(ctx, queries, target.ExcludedIDs)
	if len(hits) == 0 {
		return nil, r.noResult(&ResolveError{Stage: "search", Message: "no hits after aggregation"})
	}

	best, score, ok := SelectBest(hits, target, r.floor)
	if !ok {
		return nil, r.noResult(&ResolveError{
			Stage:   "select",
			Message: "best candidate below confidence floor",
		})
	}
	log.Infof("%s %s - %s (score: %d, id: %s)",
		logcolors.LogBestMatch, best.Title, best.Artist, score, best.ID)

	pageURL := r.resolveURL(ctx, best.URL, target.Language)

	html, err := r.pages.FetchPage(ctx, pageURL)
	if err != nil {
		// Unlike search, a page fetch failure is unrecoverable: there is
		// no secondary source for the song's markup.
		return nil, r.noResult(&ResolveError{Stage: "fetch", Message: "song page fetch failed", Err: err})
	}

	raw := ExtractContainers(html)
	if raw == "" {
		return nil, r.noResult(&ResolveError{Stage: "extract", Message: "no lyrics container in page"})
	}
	log.Debugf("%s Extracted %d bytes of container markup", logcolors.LogExtract, len(raw))

	text := CleanLyricsText(raw)
	stats.Get().RecordResolveHit()
	log.Infof("%s Resolved %d characters of lyrics (source id: %s)",
		logcolors.LogSuccess, len(text), best.ID)

	return &LyricsResult{Text: text, SourceID: best.ID}, nil
}

// resolveURL substitutes a translated page variant for non-English
// requests when one exists. A failed probe is not an error: the original
// URL is used.
func (r *Resolver) resolveURL(ctx context.Context, url, language string) string {
	if language == "en" {
		return url
	}
	translated := url + "/translations/" + language
	if r.pages.Probe(ctx, translated) {
		log.Infof("%s Using %s translation: %s", logcolors.LogTranslation, language, translated)
		return translated
	}
	log.Infof("%s No %s translation found, using original", logcolors.LogTranslation, language)
	return url
}

// noResult logs the stage-specific reason, records the miss, and returns
// the single public outcome.
func (r *Resolver) noResult(reason *ResolveError) error {
	log.Warnf("%s %v", logcolors.LogLyrics, reason)
	stats.Get().RecordResolveMiss(reason.Stage)
	return ErrNoResult
}
