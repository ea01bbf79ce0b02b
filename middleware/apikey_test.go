package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func runAPIKeyRequest(t *testing.T, mw func(http.Handler) http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyNotRequired(t *testing.T) {
	mw := APIKeyMiddleware("secret", false, nil)

	rec := runAPIKeyRequest(t, mw, "/getLyrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected pass-through when auth disabled, got %d", rec.Code)
	}
}

func TestAPIKeyRequiredButUnconfigured(t *testing.T) {
	mw := APIKeyMiddleware("", true, nil)

	rec := runAPIKeyRequest(t, mw, "/getLyrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected allow on misconfiguration, got %d", rec.Code)
	}
}

func TestAPIKeyMissing(t *testing.T) {
	mw := APIKeyMiddleware("secret", true, nil)

	rec := runAPIKeyRequest(t, mw, "/getLyrics", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for missing key, got %d", rec.Code)
	}
}

func TestAPIKeyInvalid(t *testing.T) {
	mw := APIKeyMiddleware("secret", true, nil)

	rec := runAPIKeyRequest(t, mw, "/getLyrics", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for invalid key, got %d", rec.Code)
	}
}

func TestAPIKeyValid(t *testing.T) {
	mw := APIKeyMiddleware("secret", true, nil)

	rec := runAPIKeyRequest(t, mw, "/getLyrics", "secret")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid key, got %d", rec.Code)
	}
}

func TestAPIKeyPublicPaths(t *testing.T) {
	mw := APIKeyMiddleware("secret", true, []string{"/health", "/cache/*"})

	if rec := runAPIKeyRequest(t, mw, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected public exact path to bypass auth, got %d", rec.Code)
	}
	if rec := runAPIKeyRequest(t, mw, "/cache/clear", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected public prefix path to bypass auth, got %d", rec.Code)
	}
	if rec := runAPIKeyRequest(t, mw, "/getLyrics", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected non-public path to require key, got %d", rec.Code)
	}
}
