package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Yellow = "\033[33m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCacheInit     = Blue + "[Cache:Init]" + Reset
	LogCache         = Blue + "[Cache]" + Reset
	LogCacheClear    = Blue + "[Cache:Clear]" + Reset
	LogCacheLyrics   = Green + "[Cache:Lyrics]" + Reset
	LogCacheNegative = Cyan + "[Cache:Negative]" + Reset
	LogCacheBackup   = Blue + "[Cache:Backup]" + Reset
	LogCacheRestore  = Blue + "[Cache:Restore]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Notification log prefixes
const (
	LogNotifier = Cyan + "[Notifier]" + Reset
)

// Resolver pipeline log prefixes
const (
	LogRequest     = Purple + "[Request]" + Reset
	LogSearch      = Blue + "[Search]" + Reset
	LogHTTP        = Cyan + "[HTTP]" + Reset
	LogBestMatch   = Green + "[Best Match]" + Reset
	LogHitScore    = Cyan + "[Hit Score]" + Reset
	LogTranslation = Cyan + "[Translation]" + Reset
	LogPage        = Blue + "[Page]" + Reset
	LogExtract     = Cyan + "[Extract]" + Reset
	LogLyrics      = Blue + "[Lyrics]" + Reset
	LogSuccess     = Green + "[Success]" + Reset
)

// Discovery pass-through log prefixes
const (
	LogDiscover = Blue + "[Discover]" + Reset
	LogTrending = Cyan + "[Trending]" + Reset
	LogArtist   = Cyan + "[Artist]" + Reset
)
