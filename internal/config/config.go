package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	CollectionPath    string
	HSKDataPath       string
	FrequencyDataPath string
	LogLevel          string
	AggregationPolicy string
	ReportQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		CollectionPath:    envOr("COLLECTION_PATH", "collection.anki2"),
		HSKDataPath:       envOr("HSK_DATA_PATH", "datasets/hsk-chars.csv"),
		FrequencyDataPath: envOr("FREQUENCY_DATA_PATH", "datasets/hanzi-frequency.csv"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		AggregationPolicy: envOr("AGGREGATION_POLICY", "best_effort"),
		ReportQueueSize:   envIntOr("REPORT_QUEUE_SIZE", 16),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
