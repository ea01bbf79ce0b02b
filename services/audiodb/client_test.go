package audiodb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestSearchArtistFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("s"); got != "Daft Punk" {
			t.Errorf("Expected artist query 'Daft Punk', got %q", got)
		}
		w.Write([]byte(`{"artists": [{"idArtist": "112024", "strArtist": "Daft Punk", "strGenre": "Electronic", "strCountry": "Paris, France"}]}`))
	}))
	defer srv.Close()

	artist, err := testClient(srv.URL).SearchArtist(context.Background(), "Daft Punk")
	if err != nil {
		t.Fatalf("SearchArtist returned error: %v", err)
	}
	if artist == nil {
		t.Fatal("Expected an artist, got nil")
	}
	if artist.Name != "Daft Punk" || artist.Genre != "Electronic" {
		t.Errorf("Unexpected artist mapping: %+v", artist)
	}
}

func TestSearchArtistNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The upstream returns a JSON null for unknown artists
		w.Write([]byte(`{"artists": null}`))
	}))
	defer srv.Close()

	artist, err := testClient(srv.URL).SearchArtist(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("SearchArtist returned error: %v", err)
	}
	if artist != nil {
		t.Errorf("Expected nil for unknown artist, got %+v", artist)
	}
}

func TestSearchArtistUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SearchArtist(context.Background(), "anyone")
	if err == nil {
		t.Fatal("Expected error for 500 response, got nil")
	}
}

func TestTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trending": [
			{"intChartPlace": "1", "strArtist": "Ed Sheeran", "strTrack": "Shape of You"},
			{"intChartPlace": "2", "strArtist": "Beyonce", "strTrack": "Halo"}
		]}`))
	}))
	defer srv.Close()

	tracks := testClient(srv.URL).Trending(context.Background())
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 trending tracks, got %d", len(tracks))
	}
	if tracks[0].Track != "Shape of You" || tracks[0].ChartPlace != "1" {
		t.Errorf("Unexpected first track: %+v", tracks[0])
	}
}

func TestTrendingFailureYieldsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tracks := testClient(srv.URL).Trending(context.Background())
	if tracks == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(tracks) != 0 {
		t.Errorf("Expected no tracks on failure, got %d", len(tracks))
	}
}

func TestTrendingNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trending": null}`))
	}))
	defer srv.Close()

	tracks := testClient(srv.URL).Trending(context.Background())
	if tracks == nil || len(tracks) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", tracks)
	}
}
