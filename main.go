package main

import (
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/cache"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/middleware"
	"lyrics-resolver-go/services/audiodb"
	"lyrics-resolver-go/services/genius"
	"lyrics-resolver-go/services/hearthis"
	"lyrics-resolver-go/services/notifier"
	"lyrics-resolver-go/services/resolver"
	"lyrics-resolver-go/stats"
)

var conf = config.Get()

var (
	persistentCache *cache.PersistentCache
	statsStore      *stats.Store
	geniusClient    *genius.Client
	audioDBClient   *audiodb.Client
	hearThisClient  *hearthis.Client
	lyricsResolver  *resolver.Resolver
	inFlightReqs    sync.Map
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // Set to InfoLevel (change to DebugLevel for detailed logs)

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

func main() {
	var err error
	persistentCache, err = cache.NewPersistentCache(
		conf.Configuration.CacheDBPath,
		conf.Configuration.CacheBackupPath,
		conf.FeatureFlags.CacheCompression,
	)
	if err != nil {
		notifier.PublishServerStartupFailed("cache", err)
		log.Fatalf("%s Failed to initialize persistent cache: %v", logcolors.LogServer, err)
	}
	defer persistentCache.Close()

	// Stats persistence is best effort: a broken stats db must not keep
	// the server down.
	statsStore, err = stats.NewStore(conf.Configuration.StatsDBPath)
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
	} else {
		if err := statsStore.Load(); err != nil {
			log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
		}
		statsStore.StartAutoSave(5 * time.Minute)
		defer statsStore.Close()
	}

	startAlertHandler()

	geniusClient = genius.NewClient()
	audioDBClient = audiodb.NewClient()
	hearThisClient = hearthis.NewClient()
	lyricsResolver = resolver.New(geniusClient, geniusClient)

	router := mux.NewRouter()
	setupRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"https://music.youtube.com", "http://localhost:3000"},
		AllowCredentials: true,
	})

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.CachedRateLimitPerSecond),
		conf.Configuration.CachedRateLimitBurstLimit,
	)

	apiKeyCheck := middleware.APIKeyMiddleware(
		conf.Configuration.APIKey,
		conf.Configuration.APIKeyRequired,
		[]string{"/", "/health"},
	)

	// logging middleware
	loggedRouter := middleware.LoggingMiddleware(router)
	// chain cors middleware
	corsHandler := c.Handler(loggedRouter)
	// chain API key check
	keyedHandler := apiKeyCheck(corsHandler)
	// chain rate limiter
	handler := limitMiddleware(keyedHandler, limiter)

	log.Infof("%s Server listening on port %s", logcolors.LogServer, port)
	notifier.PublishServerStarted(port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		notifier.PublishServerStartupFailed("http", err)
		log.Fatalf("%s Server exited: %v", logcolors.LogServer, err)
	}
}
