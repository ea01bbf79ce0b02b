package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lyrics-resolver-go/services/genius"
	"lyrics-resolver-go/services/resolver"
)

type stubSearch struct {
	hits  []resolver.SearchHit
	err   error
	delay time.Duration
	calls int32
}

func (s *stubSearch) Search(ctx context.Context, query string) ([]resolver.SearchHit, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.hits, s.err
}

type stubPages struct {
	pages map[string]string
}

func (s *stubPages) FetchPage(ctx context.Context, url string) (string, error) {
	return s.pages[url], nil
}

func (s *stubPages) Probe(ctx context.Context, url string) bool {
	_, ok := s.pages[url]
	return ok
}

func lyricsPage(body string) string {
	return `<html><body><div data-lyrics-container="true">` + body + `</div></body></html>`
}

// setupLyricsHandler wires the handler globals against stubbed search
// and page backends.
func setupLyricsHandler(t *testing.T, search *stubSearch, pages *stubPages) func() {
	t.Helper()

	cleanup := setupTestEnvironment(t)
	geniusClient = genius.NewClient()
	lyricsResolver = resolver.New(search, pages)
	return cleanup
}

func TestGetLyricsMissingParams(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/getLyrics", nil)

	getLyrics(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestGetLyricsResolvesAndCaches(t *testing.T) {
	search := &stubSearch{
		hits: []resolver.SearchHit{
			{
				ID:        "42",
				Title:     "Halo",
				Artist:    "Beyonce",
				URL:       "https://songs.test/halo",
				FullTitle: "Halo by Beyonce",
			},
		},
	}
	pages := &stubPages{pages: map[string]string{
		"https://songs.test/halo": lyricsPage("Remember those walls I built"),
	}}
	cleanup := setupLyricsHandler(t, search, pages)
	defer cleanup()

	// First request resolves through the pipeline
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/getLyrics?s=Halo&a=Beyonce", nil)
	getLyrics(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if got := w.Header().Get("X-Cache-Status"); got != "MISS" {
		t.Errorf("X-Cache-Status = %q, want %q", got, "MISS")
	}

	var resp resolver.LyricsResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Text, "Remember those walls I built") {
		t.Errorf("lyrics = %q, want it to contain %q", resp.Text, "Remember those walls I built")
	}
	if resp.SourceID != "42" {
		t.Errorf("sourceId = %q, want %q", resp.SourceID, "42")
	}

	// Result must be cached under the normalized key
	if _, found := getCachedLyrics("lyrics:halo beyonce"); !found {
		t.Error("Expected resolved lyrics to be cached under the normalized key")
	}

	// Second request is served from cache
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/getLyrics?s=halo&a=BEYONCE", nil)
	getLyrics(w2, r2)

	if w2.Code != http.StatusOK {
		t.Fatalf("second request status code = %d, want %d", w2.Code, http.StatusOK)
	}
	if got := w2.Header().Get("X-Cache-Status"); got != "HIT" {
		t.Errorf("second request X-Cache-Status = %q, want %q", got, "HIT")
	}
}

func TestGetLyricsNotFoundIsNegativeCached(t *testing.T) {
	search := &stubSearch{hits: nil}
	pages := &stubPages{pages: map[string]string{}}
	cleanup := setupLyricsHandler(t, search, pages)
	defer cleanup()

	// First request misses everywhere and resolves to not found
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/getLyrics?s=Unknown+Song&a=Unknown+Artist", nil)
	getLyrics(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := w.Header().Get("X-Cache-Status"); got != "MISS" {
		t.Errorf("X-Cache-Status = %q, want %q", got, "MISS")
	}

	// Second request is answered from the negative cache
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/getLyrics?s=Unknown+Song&a=Unknown+Artist", nil)
	getLyrics(w2, r2)

	if w2.Code != http.StatusNotFound {
		t.Fatalf("second request status code = %d, want %d", w2.Code, http.StatusNotFound)
	}
	if got := w2.Header().Get("X-Cache-Status"); got != "NEGATIVE_HIT" {
		t.Errorf("second request X-Cache-Status = %q, want %q", got, "NEGATIVE_HIT")
	}
}

func TestGetLyricsSkipExcludesSource(t *testing.T) {
	search := &stubSearch{
		hits: []resolver.SearchHit{
			{
				ID:        "42",
				Title:     "Halo",
				Artist:    "Beyonce",
				URL:       "https://songs.test/halo",
				FullTitle: "Halo by Beyonce",
			},
			{
				ID:        "77",
				Title:     "Halo (Live)",
				Artist:    "Beyonce",
				URL:       "https://songs.test/halo-live",
				FullTitle: "Halo (Live) by Beyonce",
			},
		},
	}
	pages := &stubPages{pages: map[string]string{
		"https://songs.test/halo":      lyricsPage("studio version"),
		"https://songs.test/halo-live": lyricsPage("live version"),
	}}
	cleanup := setupLyricsHandler(t, search, pages)
	defer cleanup()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/getLyrics?s=Halo&a=Beyonce&skip=42", nil)
	getLyrics(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp resolver.LyricsResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SourceID != "77" {
		t.Errorf("sourceId = %q, want %q (excluded source must never be selected)", resp.SourceID, "77")
	}

	// The skip variant must not pollute the plain cache key
	if _, found := getCachedLyrics("lyrics:halo beyonce"); found {
		t.Error("Expected plain cache key to stay empty for a skip request")
	}
	if _, found := getCachedLyrics("lyrics:halo beyonce skip:42"); !found {
		t.Error("Expected skip request to be cached under its own key")
	}
}

func TestGetLyricsTranslationVariant(t *testing.T) {
	search := &stubSearch{
		hits: []resolver.SearchHit{
			{
				ID:        "42",
				Title:     "Halo",
				Artist:    "Beyonce",
				URL:       "https://songs.test/halo",
				FullTitle: "Halo by Beyonce",
			},
		},
	}
	pages := &stubPages{pages: map[string]string{
		"https://songs.test/halo":                 lyricsPage("original text"),
		"https://songs.test/halo/translations/fr": lyricsPage("texte traduit"),
	}}
	cleanup := setupLyricsHandler(t, search, pages)
	defer cleanup()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/getLyrics?s=Halo&a=Beyonce&lang=fr", nil)
	getLyrics(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp resolver.LyricsResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Text, "texte traduit") {
		t.Errorf("lyrics = %q, want the translated variant", resp.Text)
	}
}

func TestGetLyricsCoalescesConcurrentRequests(t *testing.T) {
	search := &stubSearch{
		hits: []resolver.SearchHit{
			{
				ID:        "42",
				Title:     "Halo",
				Artist:    "Beyonce",
				URL:       "https://songs.test/halo",
				FullTitle: "Halo by Beyonce",
			},
		},
		delay: 100 * time.Millisecond,
	}
	pages := &stubPages{pages: map[string]string{
		"https://songs.test/halo": lyricsPage("Remember those walls I built"),
	}}
	cleanup := setupLyricsHandler(t, search, pages)
	defer cleanup()

	recorders := make([]*httptest.ResponseRecorder, 2)
	var wg sync.WaitGroup
	for i := range recorders {
		recorders[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(w *httptest.ResponseRecorder) {
			defer wg.Done()
			r := httptest.NewRequest("GET", "/getLyrics?s=halo&a=beyonce", nil)
			getLyrics(w, r)
		}(recorders[i])
		// Let the first request become the in-flight leader before the
		// second one arrives.
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()

	for i, w := range recorders {
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status code = %d, want %d", i, w.Code, http.StatusOK)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("request %d: invalid JSON body: %v", i, err)
		}
		if body["sourceId"] != "42" {
			t.Errorf("request %d: sourceId = %v, want 42", i, body["sourceId"])
		}
	}

	// Title plus artist synthesizes two distinct queries, so a single
	// resolution issues exactly two searches. A second resolution would
	// double that.
	if calls := atomic.LoadInt32(&search.calls); calls != 2 {
		t.Errorf("search calls = %d, want 2", calls)
	}
}

func TestHelpHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	helpHandler(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := resp["help"]; !ok {
		t.Error("Expected help text in response")
	}
}

func TestGetArtistMissingParam(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/artist", nil)

	getArtist(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}
