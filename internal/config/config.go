package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	PostgresURL     string
	RedisAddr       string
	KafkaBrokers    []string
	EmailServiceURL string
	ServiceName     string
	Currency        string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		PostgresURL:     getenv("POSTGRES_URL", ""),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    splitCSV(getenv("KAFKA_BROKERS", "")),
		EmailServiceURL: getenv("EMAIL_SERVICE_URL", ""),
		ServiceName:     getenv("SERVICE_NAME", "storefront"),
		Currency:        getenv("CURRENCY", "USD"),
		SessionTTL:      getduration("SESSION_TTL_HOURS", 72) * time.Hour,
		CatalogCacheTTL: getduration("CATALOG_CACHE_TTL_SECONDS", 30) * time.Second,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(def)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
