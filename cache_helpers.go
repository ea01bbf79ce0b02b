package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/resolver"
)

// Basic cache operations

func getCache(key string) (string, bool) {
	return persistentCache.Get(key)
}

func setCache(key, value string) {
	if err := persistentCache.Set(key, value); err != nil {
		log.Errorf("%s Error setting cache value: %v", logcolors.LogCache, err)
	}
}

// getCacheFresh returns a cached value only when it is younger than maxAge.
// Stale entries are left in place so an explicit clear or overwrite decides
// their fate.
func getCacheFresh(key string, maxAge time.Duration) (string, bool) {
	value, storedAt, ok := persistentCache.GetWithAge(key)
	if !ok {
		return "", false
	}
	if time.Since(storedAt) > maxAge {
		return "", false
	}
	return value, true
}

// Lyrics cache operations

// getCachedLyrics retrieves and parses a cached resolution result.
// Entries older than the lyrics TTL are deleted and reported as a miss
// so the next request re-resolves them.
func getCachedLyrics(key string) (*resolver.LyricsResult, bool) {
	cached, storedAt, ok := persistentCache.GetWithAge(key)
	if !ok {
		return nil, false
	}

	ttl := time.Duration(conf.Configuration.LyricsCacheTTLInDays) * 24 * time.Hour
	if time.Since(storedAt) > ttl {
		log.Infof("%s Expiring stale entry for key: %s", logcolors.LogCacheLyrics, key)
		persistentCache.Delete(key)
		return nil, false
	}

	var result resolver.LyricsResult
	if err := json.Unmarshal([]byte(cached), &result); err != nil || result.Text == "" {
		return nil, false
	}
	return &result, true
}

// setCachedLyrics stores a resolution result as JSON
func setCachedLyrics(key string, result *resolver.LyricsResult) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Errorf("%s Error marshaling cached lyrics: %v", logcolors.LogCacheLyrics, err)
		return
	}
	if err := persistentCache.Set(key, string(data)); err != nil {
		log.Errorf("%s Error setting cache value: %v", logcolors.LogCacheLyrics, err)
	}
}

// Negative cache operations

// getNegativeCache checks if a request is in the negative cache (no lyrics available)
// Returns the reason and true if found and not expired, empty string and false otherwise
func getNegativeCache(key string) (string, bool) {
	negativeKey := "no_lyrics:" + key
	cached, ok := persistentCache.Get(negativeKey)
	if !ok {
		return "", false
	}

	var entry NegativeCacheEntry
	if err := json.Unmarshal([]byte(cached), &entry); err != nil {
		return "", false
	}

	// Check if entry has expired
	ttlDays := conf.Configuration.NegativeCacheTTLInDays
	expirationTime := entry.Timestamp + int64(ttlDays*24*60*60)
	if time.Now().Unix() > expirationTime {
		// Expired - delete and return not found
		persistentCache.Delete(negativeKey)
		return "", false
	}

	return entry.Reason, true
}

// setNegativeCache stores a failed lookup in the negative cache
func setNegativeCache(key, reason string) {
	negativeKey := "no_lyrics:" + key
	entry := NegativeCacheEntry{
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("%s Error marshaling negative cache entry: %v", logcolors.LogCacheNegative, err)
		return
	}
	if err := persistentCache.Set(negativeKey, string(data)); err != nil {
		log.Errorf("%s Error setting negative cache: %v", logcolors.LogCacheNegative, err)
	}
	log.Infof("%s Cached 'no lyrics' for key: %s (reason: %s)", logcolors.LogCacheNegative, key, reason)
}

// shouldNegativeCache determines if an error should be stored in negative cache.
// Only the pipeline's definitive "no lyrics" outcome qualifies; transient
// failures (timeouts, open circuit) must stay uncached so recovery is possible.
func shouldNegativeCache(err error) bool {
	return errors.Is(err, resolver.ErrNoResult)
}

// Cache key builders

// buildLyricsCacheKey creates a consistent, normalized cache key.
// This ensures cache hits regardless of input casing or whitespace variations.
// Language is part of the key only for non-English requests, and excluded ids
// are appended sorted so rejection feedback never collides with the plain key.
func buildLyricsCacheKey(title, artist, album string, year int, language string, skipIDs []string) string {
	query := strings.ToLower(strings.TrimSpace(title)) + " " + strings.ToLower(strings.TrimSpace(artist))
	if album = strings.ToLower(strings.TrimSpace(album)); album != "" {
		query += " " + album
	}
	if year > 0 {
		query += fmt.Sprintf(" %d", year)
	}
	if language != "" && language != "en" {
		query += " lang:" + language
	}
	if len(skipIDs) > 0 {
		sorted := make([]string, len(skipIDs))
		copy(sorted, skipIDs)
		sort.Strings(sorted)
		query += " skip:" + strings.Join(sorted, ",")
	}
	return fmt.Sprintf("lyrics:%s", query)
}

// buildFallbackCacheKeys returns a list of cache keys to try when the backend fails.
// Keys are ordered from most specific to least specific, excluding the original key.
func buildFallbackCacheKeys(title, artist, album string, year int, language string, originalKey string) []string {
	var keys []string

	// Fallback: without album and year (if either was provided)
	if album != "" || year > 0 {
		relaxed := buildLyricsCacheKey(title, artist, "", 0, language, nil)
		if relaxed != originalKey {
			keys = append(keys, relaxed)
		}
	}

	return keys
}
