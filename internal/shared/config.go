package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	RedisAddr string
	RedisDB   int
	RedisPass string

	OverlayBackend string // sqlite | mysql | redis
	SQLitePath     string
	MySQLDSN       string

	CrawlBase       string
	CrawlKey        string
	CrawlRPS        int
	CrawlMaxRetries int
	HotelSearchURL  string
	CacheFreshness  time.Duration

	MailBase string
	MailKey  string
	MailFrom string

	FeedbackURLs   []string
	WarmWorkers    int
	RequestTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	dur := func(k string, def time.Duration) time.Duration {
		if v := os.Getenv(k); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				return d
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a duration, using default")
		}
		return def
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		OverlayBackend: strings.ToLower(env("OVERLAY_BACKEND", "sqlite")),
		SQLitePath:     env("SQLITE_PATH", "accessible_travel.db"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		CrawlBase:       env("CRAWL_BASE_URL", "https://api.firecrawl.dev"),
		CrawlKey:        env("CRAWL_API_KEY", ""),
		CrawlRPS:        atoi("CRAWL_RPS", 2),
		CrawlMaxRetries: atoi("CRAWL_MAX_RETRIES", 0),
		HotelSearchURL:  env("HOTEL_SEARCH_URL", "https://www.google.com/search?q=wheelchair+accessible+hotels+in+{city}"),
		CacheFreshness:  dur("CACHE_FRESHNESS", 24*time.Hour),

		MailBase: env("MAIL_BASE_URL", "https://api.resend.com"),
		MailKey:  env("MAIL_API_KEY", ""),
		MailFrom: env("MAIL_FROM", "trips@accessible-travel.local"),

		FeedbackURLs:   list(os.Getenv("FEEDBACK_URLS")),
		WarmWorkers:    atoi("WARM_WORKERS", 4),
		RequestTimeout: dur("REQUEST_TIMEOUT", 90*time.Second),
	}
	if c.CrawlKey == "" {
		log.Warn().Msg("CRAWL_API_KEY is empty; hotel refreshes will fail")
	}
	switch c.OverlayBackend {
	case "sqlite", "mysql", "redis":
	default:
		log.Warn().Str("backend", c.OverlayBackend).Msg("unknown OVERLAY_BACKEND, using sqlite")
		c.OverlayBackend = "sqlite"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// list splits a comma separated value, dropping blanks.
func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
