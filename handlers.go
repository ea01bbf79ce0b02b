package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/cache"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/notifier"
	"lyrics-resolver-go/services/resolver"
	"lyrics-resolver-go/stats"
)

// Freshness windows for the discovery pass-throughs. Upstream feeds
// rotate, so entries are served only while young enough.
const (
	discoverCacheTTL = 1 * time.Hour
	trendingCacheTTL = 1 * time.Hour
	artistCacheTTL   = 24 * time.Hour
)

func getLyrics(w http.ResponseWriter, r *http.Request) {
	songName := r.URL.Query().Get("s") + r.URL.Query().Get("song") + r.URL.Query().Get("songName")
	artistName := r.URL.Query().Get("a") + r.URL.Query().Get("artist") + r.URL.Query().Get("artistName")
	albumName := r.URL.Query().Get("al") + r.URL.Query().Get("album") + r.URL.Query().Get("albumName")
	yearStr := r.URL.Query().Get("y") + r.URL.Query().Get("year")
	language := r.URL.Query().Get("lang") + r.URL.Query().Get("language")
	skipStr := r.URL.Query().Get("skip")

	if songName == "" && artistName == "" {
		http.Error(w, "Song name or artist name not provided", http.StatusUnprocessableEntity)
		return
	}

	year := 0
	if yearStr != "" {
		if parsed, err := strconv.Atoi(yearStr); err == nil {
			year = parsed
		}
	}

	if language == "" {
		language = conf.Configuration.DefaultLanguage
	}

	// Excluded source ids from wrong-song feedback
	var skipIDs []string
	skipSet := make(map[string]bool)
	for _, id := range strings.Split(skipStr, ",") {
		if id = strings.TrimSpace(id); id != "" {
			skipIDs = append(skipIDs, id)
			skipSet[id] = true
		}
	}

	// Use normalized cache key for consistent cache hits regardless of input casing/whitespace
	cacheKey := buildLyricsCacheKey(songName, artistName, albumName, year, language, skipIDs)

	// For logging, use a clean query string
	query := strings.ToLower(strings.TrimSpace(songName)) + " " + strings.ToLower(strings.TrimSpace(artistName))

	// Check if we're in cache-only mode (rate limit tier 2)
	cacheOnlyMode, _ := r.Context().Value(cacheOnlyModeKey).(bool)

	// Check cache first
	if cached, ok := getCachedLyrics(cacheKey); ok {
		stats.Get().RecordCacheHit()
		log.Infof("%s Found cached lyrics for: %s", logcolors.LogCacheLyrics, query)
		Respond(w, r).SetCacheStatus("HIT").SetSourceID(cached.SourceID).JSON(cached)
		return
	}

	// Check negative cache (known "no lyrics" responses)
	if reason, found := getNegativeCache(cacheKey); found {
		stats.Get().RecordNegativeCacheHit()
		log.Infof("%s Returning cached 'no lyrics' response for: %s", logcolors.LogCacheNegative, query)
		Respond(w, r).SetCacheStatus("NEGATIVE_HIT").Error(http.StatusNotFound, map[string]interface{}{
			"error": reason,
		})
		return
	}

	// If in cache-only mode and no cache found, return 429
	if cacheOnlyMode {
		stats.Get().RecordCacheMiss()
		stats.Get().RecordRateLimit("exceeded")
		log.Warnf("%s Cache-only mode but no cache found for: %s", logcolors.LogCacheLyrics, query)
		w.Header().Set("Retry-After", "60")
		Respond(w, r).SetCacheStatus("MISS").Error(http.StatusTooManyRequests, map[string]interface{}{
			"error":   "Rate limit exceeded. This request requires cached data, but no cache is available for this query.",
			"message": "Please try again later or reduce your request rate.",
		})
		return
	}

	// The WaitGroup counter must be raised before the entry becomes
	// visible in the map: a waiter that loads the entry in between would
	// otherwise pass Wait() immediately and read an unset result.
	newReq := &InFlightRequest{}
	newReq.wg.Add(1)

	inFlight, loaded := inFlightReqs.LoadOrStore(cacheKey, newReq)
	req := inFlight.(*InFlightRequest)

	if loaded {
		log.Infof("%s Waiting for in-flight request to complete", logcolors.LogCacheLyrics)
		req.wg.Wait()

		if req.err != nil || req.result == nil {
			err := req.err
			if err == nil {
				err = resolver.ErrNoResult
			}
			writeResolveError(w, r, err)
			return
		}

		Respond(w, r).SetCacheStatus("HIT").SetSourceID(req.result.SourceID).JSON(req.result)
		return
	}

	defer func() {
		req.wg.Done()
		time.AfterFunc(1*time.Second, func() {
			inFlightReqs.Delete(cacheKey)
		})
	}()

	target := resolver.TrackQuery{
		Title:       songName,
		Artist:      artistName,
		Album:       albumName,
		Year:        year,
		Language:    language,
		ExcludedIDs: skipSet,
	}

	result, err := lyricsResolver.Resolve(r.Context(), target)

	req.result = result
	req.err = err

	if err != nil {
		log.Warnf("%s Resolution failed for %q: %v", logcolors.LogLyrics, query, err)

		// Try fallback cache keys before returning an error
		fallbackKeys := buildFallbackCacheKeys(songName, artistName, albumName, year, language, cacheKey)
		for _, fallbackKey := range fallbackKeys {
			if cached, ok := getCachedLyrics(fallbackKey); ok {
				stats.Get().RecordCacheHit()
				log.Warnf("%s Resolution failed, serving cache from relaxed key: %s", logcolors.LogCacheLyrics, fallbackKey)
				req.result, req.err = cached, nil
				Respond(w, r).SetCacheStatus("STALE").SetSourceID(cached.SourceID).JSON(cached)
				return
			}
		}

		// Cache the definitive "no lyrics" outcome unless the search
		// backend is known to be down, in which case the miss may be
		// transient.
		if shouldNegativeCache(err) && !geniusClient.Breaker().IsOpen() {
			setNegativeCache(cacheKey, "Lyrics not available for this track")
		}

		stats.Get().RecordCacheMiss()
		writeResolveError(w, r, err)
		return
	}

	stats.Get().RecordCacheMiss()
	log.Infof("%s Caching lyrics for: %s (source id: %s)", logcolors.LogCacheLyrics, query, result.SourceID)
	setCachedLyrics(cacheKey, result)

	Respond(w, r).SetCacheStatus("MISS").SetSourceID(result.SourceID).JSON(result)
}

// writeResolveError maps a pipeline error onto the HTTP surface: the
// definitive "no lyrics" outcome is a 404, anything else a 500.
func writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, resolver.ErrNoResult) {
		Respond(w, r).SetCacheStatus("MISS").Error(http.StatusNotFound, map[string]interface{}{
			"error": "Lyrics not available for this track",
		})
		return
	}
	Respond(w, r).SetCacheStatus("MISS").Error(http.StatusInternalServerError, map[string]interface{}{
		"error": err.Error(),
	})
}

// Discovery pass-throughs

func getDiscover(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	cacheKey := fmt.Sprintf("discover:page=%d count=%d", page, count)
	if cached, ok := getCacheFresh(cacheKey, discoverCacheTTL); ok {
		Respond(w, r).SetCacheStatus("HIT").JSON(json.RawMessage(cached))
		return
	}

	tracks := hearThisClient.PopularFeed(r.Context(), page, count)
	log.Infof("%s Fetched %d popular tracks (page %d)", logcolors.LogDiscover, len(tracks), page)

	body, err := json.Marshal(map[string]interface{}{
		"count":  len(tracks),
		"tracks": tracks,
	})
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	if len(tracks) > 0 {
		setCache(cacheKey, string(body))
	}

	Respond(w, r).SetCacheStatus("MISS").JSON(json.RawMessage(body))
}

func getTrending(w http.ResponseWriter, r *http.Request) {
	cacheKey := "trending:singles"
	if cached, ok := getCacheFresh(cacheKey, trendingCacheTTL); ok {
		Respond(w, r).SetCacheStatus("HIT").JSON(json.RawMessage(cached))
		return
	}

	tracks := audioDBClient.Trending(r.Context())
	log.Infof("%s Fetched %d trending singles", logcolors.LogTrending, len(tracks))

	body, err := json.Marshal(map[string]interface{}{
		"count":  len(tracks),
		"tracks": tracks,
	})
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	if len(tracks) > 0 {
		setCache(cacheKey, string(body))
	}

	Respond(w, r).SetCacheStatus("MISS").JSON(json.RawMessage(body))
}

func getArtist(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("a") + r.URL.Query().Get("artist") + r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Artist name not provided", http.StatusUnprocessableEntity)
		return
	}

	cacheKey := "artist:" + strings.ToLower(strings.TrimSpace(name))
	if cached, ok := getCacheFresh(cacheKey, artistCacheTTL); ok {
		Respond(w, r).SetCacheStatus("HIT").JSON(json.RawMessage(cached))
		return
	}

	artist, err := audioDBClient.SearchArtist(r.Context(), name)
	if err != nil {
		log.Errorf("%s Artist lookup failed for %q: %v", logcolors.LogArtist, name, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if artist == nil {
		Respond(w, r).SetCacheStatus("MISS").Error(http.StatusNotFound, map[string]interface{}{
			"error": "Artist not found",
		})
		return
	}

	body, err := json.Marshal(artist)
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	setCache(cacheKey, string(body))

	Respond(w, r).SetCacheStatus("MISS").JSON(json.RawMessage(body))
}

// Stats and operational endpoints

func getStats(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := stats.Get().Snapshot()

	// Add cache storage info
	numKeys, sizeInKB := persistentCache.Stats()
	snapshot["cache_storage"] = map[string]interface{}{
		"keys":    numKeys,
		"size_kb": sizeInKB,
		"size_mb": float64(sizeInKB) / 1024,
	}

	// Add circuit breaker status
	breaker := geniusClient.Breaker()
	snapshot["circuit_breaker"] = map[string]interface{}{
		"state":              breaker.State().String(),
		"failures":           breaker.Failures(),
		"cooldown_remaining": breaker.TimeUntilRetry().String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func getCacheDump(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cacheDump := CacheDump{}
	persistentCache.Range(func(key string, entry cache.CacheEntry) bool {
		cacheDump[key] = entry
		return true
	})

	numKeys, sizeInKB := persistentCache.Stats()
	s := stats.Get()

	cacheDumpResponse := CacheDumpResponse{
		NumberOfKeys: numKeys,
		SizeInKB:     sizeInKB,
		SizeInMB:     float64(sizeInKB) / 1024,
		Performance: CachePerformance{
			Hits:         s.CacheHits.Load(),
			Misses:       s.CacheMisses.Load(),
			NegativeHits: s.NegativeCacheHits.Load(),
			HitRate:      s.CacheHitRate(),
		},
		Cache: cacheDump,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cacheDumpResponse)
}

func backupCache(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	backupPath, err := persistentCache.Backup()
	if err != nil {
		log.Errorf("%s Failed to create backup: %v", logcolors.LogCacheBackup, err)
		notifier.PublishCacheBackupFailed(err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to create backup: %v", err),
		})
		return
	}

	log.Infof("%s Backup created successfully at: %s", logcolors.LogCacheBackup, backupPath)
	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Backup created successfully",
		"backup_path": backupPath,
	})
}

func clearCache(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	backupPath, err := persistentCache.BackupAndClear()
	if err != nil {
		log.Errorf("%s Failed to backup and clear cache: %v", logcolors.LogCacheClear, err)
		notifier.PublishCacheBackupFailed(err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to backup and clear cache: %v", err),
		})
		return
	}

	log.Infof("%s Cache cleared successfully, backup at: %s", logcolors.LogCacheClear, backupPath)
	notifier.PublishCacheCleared(backupPath)
	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Cache cleared successfully",
		"backup_path": backupPath,
	})
}

func listBackups(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	backups, err := persistentCache.ListBackups()
	if err != nil {
		log.Errorf("%s Failed to list backups: %v", logcolors.LogCacheBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to list backups: %v", err),
		})
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"count":   len(backups),
		"backups": backups,
	})
}

func restoreCache(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	backupFileName := r.URL.Query().Get("backup")
	if backupFileName == "" {
		Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
			"error": "Missing 'backup' query parameter. Use /cache/backups to list available backups.",
		})
		return
	}

	if err := persistentCache.RestoreFromBackup(backupFileName); err != nil {
		log.Errorf("%s Failed to restore from backup %s: %v", logcolors.LogCacheRestore, backupFileName, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to restore from backup: %v", err),
		})
		return
	}

	numKeys, sizeKB := persistentCache.Stats()

	log.Infof("%s Cache restored from backup: %s", logcolors.LogCacheRestore, backupFileName)
	Respond(w, r).JSON(map[string]interface{}{
		"message":       "Cache restored successfully",
		"restored_from": backupFileName,
		"keys_restored": numKeys,
		"size_kb":       sizeKB,
	})
}

func deleteBackup(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	backupFileName := r.URL.Query().Get("backup")
	if backupFileName == "" {
		Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
			"error": "Missing 'backup' query parameter. Use /cache/backups to list available backups.",
		})
		return
	}

	if err := persistentCache.DeleteBackup(backupFileName); err != nil {
		log.Errorf("%s Failed to delete backup %s: %v", logcolors.LogCacheBackup, backupFileName, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to delete backup: %v", err),
		})
		return
	}

	log.Infof("%s Deleted backup: %s", logcolors.LogCacheBackup, backupFileName)
	Respond(w, r).JSON(map[string]interface{}{
		"message": "Backup deleted successfully",
		"deleted": backupFileName,
	})
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	breaker := geniusClient.Breaker()
	cbState := breaker.State().String()

	health := map[string]interface{}{
		"status":          "ok",
		"circuit_breaker": cbState,
	}

	// If circuit breaker is open, mark as degraded
	if breaker.IsOpen() {
		health["status"] = "degraded"
		health["circuit_breaker_retry_in"] = breaker.TimeUntilRetry().String()
	}

	// Without an access token every search request will be rejected upstream
	if conf.Configuration.GeniusAccessToken == "" {
		health["status"] = "unhealthy"
		health["error"] = "no search API access token configured"
	}

	// If authenticated, include cache and failure detail
	if r.Header.Get("Authorization") == conf.Configuration.CacheAccessToken && conf.Configuration.CacheAccessToken != "" {
		numKeys, sizeInKB := persistentCache.Stats()
		health["cache_keys"] = numKeys
		health["cache_size_kb"] = sizeInKB
		health["circuit_breaker_failures"] = breaker.Failures()
	}

	json.NewEncoder(w).Encode(health)
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	breaker := geniusClient.Breaker()
	state, failures, lastFailure := breaker.Stats()

	response := map[string]interface{}{
		"state":            state.String(),
		"failures":         failures,
		"time_until_retry": breaker.TimeUntilRetry().String(),
		"config": map[string]interface{}{
			"threshold":    conf.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": conf.Configuration.CircuitBreakerCooldownSecs,
		},
	}
	if !lastFailure.IsZero() {
		response["last_failure"] = lastFailure.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	geniusClient.Breaker().Reset()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
	})
}

func testNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.CacheAccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifiers := setupNotifiers()

	if len(notifiers) == 0 {
		Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
			"error": "No notifiers configured. Please configure at least one notifier in your .env file.",
			"help": map[string]string{
				"telegram": "Set NOTIFIER_TELEGRAM_BOT_TOKEN and NOTIFIER_TELEGRAM_CHAT_ID",
				"email":    "Set NOTIFIER_SMTP_HOST, NOTIFIER_SMTP_USERNAME, NOTIFIER_SMTP_PASSWORD, etc.",
				"ntfy":     "Set NOTIFIER_NTFY_TOPIC",
			},
		})
		return
	}

	results := make(map[string]string)
	for _, n := range notifiers {
		name := getNotifierTypeName(n)
		if err := n.Send("Test notification", "This is a test notification from the lyrics resolver."); err != nil {
			results[name] = fmt.Sprintf("failed: %v", err)
		} else {
			results[name] = "sent"
		}
	}

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Test notifications dispatched",
		"results": results,
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"help": "Use /getLyrics to get the lyrics of a song. Provide the song name and artist name as query parameters. Example: /getLyrics?s=Shape%20of%20You&a=Ed%20Sheeran",
		"endpoints": map[string]string{
			"/getLyrics": "Resolve lyrics (params: s, a, al, y, lang, skip)",
			"/discover":  "Popular tracks feed (params: page, count)",
			"/trending":  "Trending singles chart",
			"/artist":    "Artist profile lookup (param: a)",
			"/health":    "Health status",
		},
	})
}
