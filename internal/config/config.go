// Package config reads server settings from the environment. A .env file is
// honored through godotenv's autoload import in main; everything here works
// off plain os.Getenv with sane defaults, so a bare `go run` boots an
// in-memory server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full server configuration. Empty connection strings mean the
// corresponding backend is skipped and its in-memory stand-in is used.
type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	RedisAddr string
	RedisDB   int

	PostgresDSN string

	DefaultBestOf int

	BiddingDuration time.Duration
	PassWindow      time.Duration
	ListingDuration time.Duration
	SummaryDuration time.Duration
	BidShotClock    time.Duration
}

// Load builds a Config from the environment.
func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getEnv("MONGO_DB", "livecategories"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		PostgresDSN:     postgresDSN(),
		DefaultBestOf:   getEnvInt("DEFAULT_BEST_OF", 5),
		BiddingDuration: getEnvSeconds("BIDDING_SECONDS", 30*time.Second),
		PassWindow:      getEnvSeconds("PASS_WINDOW_SECONDS", 15*time.Second),
		ListingDuration: getEnvSeconds("LISTING_SECONDS", 30*time.Second),
		SummaryDuration: getEnvSeconds("SUMMARY_SECONDS", 3*time.Second),
		BidShotClock:    getEnvSeconds("BID_SHOT_CLOCK_SECONDS", 5*time.Second),
	}
}

// postgresDSN honors an explicit POSTGRES_DSN, else composes one from the
// POSTGRES_USER/POSTGRES_PASSWORD/PG_HOST/PG_PORT/PG_DATABASE parts. All
// parts empty means stats stay in memory.
func postgresDSN() string {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	user := os.Getenv("POSTGRES_USER")
	host := os.Getenv("PG_HOST")
	if user == "" || host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		user,
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DATABASE", "livecategories"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
