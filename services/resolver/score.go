package resolver

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
)

// Score weights. Artist and title dominate; album and year are
// confirmation bonuses; language markers nudge English originals above
// translated variants when the caller wants English.
const (
	scoreFieldExact     = 100
	scoreFieldPartial   = 50
	scoreAlbumExact     = 30
	scoreYearExact      = 30
	scoreEnglishBonus   = 20
	scoreForeignPenalty = 60
)

// englishMarkers mark a hit's full title as an English page or an
// English translation of a foreign song.
var englishMarkers = []string{"english", "translation"}

// foreignMarkers mark a hit's full title as a non-English variant of the
// song. The list is a fixed, known-incomplete table of the markers the
// search service actually emits, not a language detector.
var foreignMarkers = []string{"traduction", "traduccion", "versão", "deutsche"}

// ScoreHit computes the weighted match score of one hit against the
// target track. Pure function, reproducible for identical inputs.
func ScoreHit(hit SearchHit, target TrackQuery) int {
	score := 0
	score += fieldScore(Normalize(hit.Artist), Normalize(target.Artist))
	score += fieldScore(Normalize(hit.Title), Normalize(target.Title))

	if hit.Album != "" && target.Album != "" && Normalize(hit.Album) == Normalize(target.Album) {
		score += scoreAlbumExact
	}

	if target.Year > 0 && hit.ReleaseYear > 0 && hit.ReleaseYear == target.Year {
		score += scoreYearExact
	}

	// Language preference only applies to English requests. Bonus and
	// penalty are independent checks: a full title carrying both an
	// English marker and a foreign marker gets both adjustments.
	if target.Language == "en" {
		fullTitle := strings.ToLower(hit.FullTitle)
		if containsAny(fullTitle, englishMarkers) {
			score += scoreEnglishBonus
		}
		if containsAny(fullTitle, foreignMarkers) {
			score -= scoreForeignPenalty
		}
	}

	return score
}

// fieldScore applies the shared artist/title rule: exact normalized
// equality wins full credit, either-way substring containment half.
func fieldScore(hit, target string) int {
	switch {
	case hit == target:
		return scoreFieldExact
	case strings.Contains(hit, target) || strings.Contains(target, hit):
		return scoreFieldPartial
	default:
		return 0
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// SelectBest folds over the candidate hits, tracking the maximum score
// with strict greater-than so ties resolve to the first-encountered hit
// in aggregation order. Returns ok=false when no hit reaches the floor.
func SelectBest(hits []SearchHit, target TrackQuery, floor int) (SearchHit, int, bool) {
	var (
		best      SearchHit
		bestScore = -1
	)
	for _, hit := range hits {
		s := ScoreHit(hit, target)
		log.Debugf("%s %d for %s - %s (id: %s)", logcolors.LogHitScore, s, hit.Title, hit.Artist, hit.ID)
		if s > bestScore {
			best = hit
			bestScore = s
		}
	}
	if bestScore < floor {
		return SearchHit{}, bestScore, false
	}
	return best, bestScore, true
}
