package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the tunable parameters of the API process. Values come
// from environment variables with defaults good enough for local runs.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisURL string
	CacheTTL time.Duration

	OSRMEndpoint     string
	RouteTimeout     time.Duration
	FallbackSpeedKmh float64

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

func defaults() Config {
	return Config{
		Port:             "8080",
		RedisURL:         "redis://redis:6379",
		CacheTTL:         time.Hour,
		OSRMEndpoint:     "http://router.project-osrm.org",
		RouteTimeout:     6 * time.Second,
		FallbackSpeedKmh: 40,
		KafkaTopic:       "trip-locations",
		LogLevel:         "info",
	}
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := defaults()

	setString(&cfg.Port, "PORT")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	setString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if err := setDuration(&cfg.CacheTTL, "CACHE_TTL"); err != nil {
		return cfg, err
	}
	if err := setDuration(&cfg.RouteTimeout, "ROUTE_TIMEOUT"); err != nil {
		return cfg, err
	}
	if err := setFloat(&cfg.FallbackSpeedKmh, "FALLBACK_SPEED_KMH"); err != nil {
		return cfg, err
	}
	if cfg.FallbackSpeedKmh <= 0 {
		return cfg, fmt.Errorf("FALLBACK_SPEED_KMH must be > 0")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	return cfg, nil
}

func setString(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func setDuration(target *time.Duration, key string) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = d
	}
	return nil
}

func setFloat(target *float64, key string) error {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = f
	}
	return nil
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
