package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Lyrics resolution
	router.HandleFunc("/getLyrics", getLyrics)

	// Discovery pass-throughs
	router.HandleFunc("/discover", getDiscover)
	router.HandleFunc("/trending", getTrending)
	router.HandleFunc("/artist", getArtist)

	// Cache management endpoints
	router.HandleFunc("/cache", getCacheDump)
	router.HandleFunc("/cache/backup", backupCache)
	router.HandleFunc("/cache/backups", listBackups)
	router.HandleFunc("/cache/backups/delete", deleteBackup)
	router.HandleFunc("/cache/restore", restoreCache)
	router.HandleFunc("/cache/clear", clearCache)

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus)
	router.HandleFunc("/stats", getStats)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", resetCircuitBreaker)

	// Test/debug endpoints
	router.HandleFunc("/test-notifications", testNotifications)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
