package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	PlacesBase      string
	PlacesKey       string
	Workers         int
	ViewCacheTTL    time.Duration // redis TTL for business views
	ExternalRevTTL  time.Duration // expiry stamp for cached provider reviews
	ExternalRevCap  int           // max cached/displayed provider reviews per business
	FirstPartyLimit int           // first-party reviews shown per business
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hauls?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		PlacesBase:      env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
		PlacesKey:       env("PLACES_API_KEY", ""),
		Workers:         atoi("WARM_WORKERS", 8),
		ViewCacheTTL:    time.Duration(atoi("VIEW_CACHE_TTL_SECONDS", 900)) * time.Second,
		ExternalRevTTL:  time.Duration(atoi("EXTERNAL_REVIEW_TTL_HOURS", 24*30)) * time.Hour,
		ExternalRevCap:  atoi("EXTERNAL_REVIEW_CAP", 3),
		FirstPartyLimit: atoi("FIRST_PARTY_REVIEW_LIMIT", 5),
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
