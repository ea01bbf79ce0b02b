package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		// Genius API configuration
		GeniusAccessToken string `envconfig:"GENIUS_ACCESS_TOKEN" default:""`
		GeniusAPIURL      string `envconfig:"GENIUS_API_URL" default:"https://api.genius.com"`

		// Resolver tuning
		MinMatchScore     int    `envconfig:"MIN_MATCH_SCORE" default:"50"`        // Confidence floor: best candidate below this is discarded
		SearchTimeoutSecs int    `envconfig:"SEARCH_TIMEOUT_SECONDS" default:"10"` // Per search request
		PageTimeoutSecs   int    `envconfig:"PAGE_TIMEOUT_SECONDS" default:"15"`   // Song page and translation probe requests
		DefaultLanguage   string `envconfig:"DEFAULT_LANGUAGE" default:"en"`

		// Rate limiting
		RateLimitPerSecond        int `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit       int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		CachedRateLimitPerSecond  int `envconfig:"CACHED_RATE_LIMIT_PER_SECOND" default:"10"`
		CachedRateLimitBurstLimit int `envconfig:"CACHED_RATE_LIMIT_BURST_LIMIT" default:"20"`

		// Caching (server layer only, the resolver itself never caches)
		CacheDBPath            string `envconfig:"CACHE_DB_PATH" default:"/data/lyrics-cache.db"`
		CacheBackupPath        string `envconfig:"CACHE_BACKUP_PATH" default:"/data/backups"`
		LyricsCacheTTLInDays   int    `envconfig:"LYRICS_CACHE_TTL_DAYS" default:"30"`
		NegativeCacheTTLInDays int    `envconfig:"NEGATIVE_CACHE_TTL_DAYS" default:"7"` // TTL for caching "no lyrics found" outcomes
		CacheAccessToken       string `envconfig:"CACHE_ACCESS_TOKEN" default:""`
		StatsDBPath            string `envconfig:"STATS_DB_PATH" default:"/data/lyrics-stats.db"`

		// API key auth
		APIKey         string `envconfig:"API_KEY" default:""`
		APIKeyRequired bool   `envconfig:"API_KEY_REQUIRED" default:"false"`

		// Circuit breaker for the Genius search API
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`       // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // Seconds to wait before retrying

		// Discovery pass-throughs
		AudioDBAPIURL  string `envconfig:"AUDIODB_API_URL" default:"https://theaudiodb.com/api/v1/json/2"`
		HearThisAPIURL string `envconfig:"HEARTHIS_API_URL" default:"https://api-v2.hearthis.at"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("%s Error loading env config: %v", logcolors.LogConfig, err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("%s Unable to load configuration", logcolors.LogConfig)
	}

	return c
}

func Get() Config {
	return conf
}
