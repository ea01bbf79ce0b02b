package genius

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lyrics-resolver-go/circuitbreaker"
)

func testClient(apiURL string) *Client {
	return &Client{
		apiURL:      apiURL,
		accessToken: "test-token",
		apiClient:   &http.Client{Timeout: 2 * time.Second},
		pageClient:  &http.Client{Timeout: 2 * time.Second},
		breaker:     circuitbreaker.New(circuitbreaker.Config{Name: "test"}),
	}
}

const searchResponseBody = `{
	"response": {
		"hits": [
			{
				"result": {
					"id": 55882,
					"title": "Shape of You",
					"full_title": "Shape of You by Ed Sheeran",
					"url": "https://songs.example/ed-sheeran-shape-of-you-lyrics",
					"primary_artist": {"name": "Ed Sheeran"},
					"album": {"name": "Divide"},
					"release_date_components": {"year": 2017}
				}
			},
			{
				"result": {
					"id": 55999,
					"title": "Shape of You (Acoustic)",
					"full_title": "Shape of You (Acoustic) by Ed Sheeran",
					"url": "https://songs.example/ed-sheeran-shape-of-you-acoustic-lyrics",
					"primary_artist": {"name": "Ed Sheeran"}
				}
			}
		]
	}
}`

func TestSearchMapsHits(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchResponseBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	hits, err := c.Search(context.Background(), "Ed Sheeran Shape of You")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if gotQuery != "Ed Sheeran Shape of You" {
		t.Errorf("Expected query param to round-trip, got %q", gotQuery)
	}

	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}

	first := hits[0]
	if first.ID != "55882" {
		t.Errorf("Expected numeric id as string '55882', got %q", first.ID)
	}
	if first.Artist != "Ed Sheeran" {
		t.Errorf("Expected artist 'Ed Sheeran', got %q", first.Artist)
	}
	if first.Album != "Divide" {
		t.Errorf("Expected album 'Divide', got %q", first.Album)
	}
	if first.ReleaseYear != 2017 {
		t.Errorf("Expected release year 2017, got %d", first.ReleaseYear)
	}

	// Second hit has no album and no release date
	second := hits[1]
	if second.Album != "" {
		t.Errorf("Expected empty album for hit without one, got %q", second.Album)
	}
	if second.ReleaseYear != 0 {
		t.Errorf("Expected zero release year for hit without one, got %d", second.ReleaseYear)
	}
}

func TestSearchEmptyHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"hits": []}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	hits, err := c.Search(context.Background(), "no such song")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected 0 hits, got %d", len(hits))
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("Expected error for 401 response, got nil")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected status in error, got %v", err)
	}
	if c.breaker.Failures() != 1 {
		t.Errorf("Expected 1 recorded breaker failure, got %d", c.breaker.Failures())
	}
}

func TestSearchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestSearchBlockedWhenCircuitOpen(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.breaker = circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 2, Cooldown: time.Minute})

	c.Search(context.Background(), "q")
	c.Search(context.Background(), "q")

	_, err := c.Search(context.Background(), "q")
	if err != circuitbreaker.ErrCircuitOpen {
		t.Fatalf("Expected ErrCircuitOpen after threshold, got %v", err)
	}
	if requests != 2 {
		t.Errorf("Open circuit must not reach upstream, saw %d requests", requests)
	}
}

func TestFetchPageReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected a User-Agent header on page requests")
		}
		w.Write([]byte(`<html><div data-lyrics-container="true">Hello</div></html>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body, err := c.FetchPage(context.Background(), srv.URL+"/some-song-lyrics")
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if !strings.Contains(body, "data-lyrics-container") {
		t.Errorf("Expected page markup in body, got %q", body)
	}
}

func TestFetchPageNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchPage(context.Background(), srv.URL+"/missing")
	if err == nil {
		t.Fatal("Expected error for 404 page, got nil")
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/translations/fr") {
			w.Write([]byte("ok"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if !c.Probe(context.Background(), srv.URL+"/song/translations/fr") {
		t.Error("Expected probe of existing translation to succeed")
	}
	if c.Probe(context.Background(), srv.URL+"/song/translations/de") {
		t.Error("Expected probe of missing translation to fail")
	}
}
