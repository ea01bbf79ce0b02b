package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
)

// APIKeyMiddleware requires an X-API-Key header when enabled. With
// required false every request passes through. With required true but
// no key configured, a warning is logged and requests are allowed so a
// misconfiguration can't lock out all traffic. Public paths bypass the
// check; a trailing "*" makes a path entry a prefix match.
func APIKeyMiddleware(apiKey string, required bool, publicPaths []string) func(http.Handler) http.Handler {
	publicPathMap := make(map[string]bool)
	for _, path := range publicPaths {
		publicPathMap[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			if apiKey == "" {
				log.Warnf("%s API key required but not configured, allowing request", logcolors.LogAPIKey)
				next.ServeHTTP(w, r)
				return
			}

			path := r.URL.Path
			isPublic := publicPathMap[path]
			if !isPublic {
				for publicPath := range publicPathMap {
					if strings.HasSuffix(publicPath, "*") {
						if strings.HasPrefix(path, strings.TrimSuffix(publicPath, "*")) {
							isPublic = true
							break
						}
					}
				}
			}
			if isPublic {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"API key required","message":"Provide a valid API key via X-API-Key header"}`))
				return
			}
			if providedKey != apiKey {
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Invalid API key","message":"The provided API key is not valid"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
