package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ad/go-telegram-recipes/internal/mealdb"
)

const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	BotToken         string
	AdminID          int64
	DBPath           string
	FavoritesBackend string
	DynamoDBTable    string
	MealDBBaseURL    string
	FetchTimeout     time.Duration
	SessionTTL       time.Duration
	LogFile          string
}

// Load reads the process environment. A .env file is picked up by the
// godotenv autoload import in main.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		BotToken:         strings.TrimSpace(getenv("BOT_TOKEN")),
		DBPath:           envOr(getenv, "DB_PATH", "recipes.db"),
		FavoritesBackend: strings.ToLower(envOr(getenv, "FAVORITES_BACKEND", BackendSQLite)),
		DynamoDBTable:    strings.TrimSpace(getenv("DYNAMODB_TABLE")),
		MealDBBaseURL:    envOr(getenv, "MEALDB_BASE_URL", mealdb.DefaultBaseURL),
		LogFile:          strings.TrimSpace(getenv("LOG_FILE")),
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	if s := strings.TrimSpace(getenv("ADMIN_ID")); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
		}
		cfg.AdminID = id
	}

	var err error
	if cfg.FetchTimeout, err = envDuration(getenv, "FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = envDuration(getenv, "SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.FavoritesBackend {
	case BackendSQLite:
	case BackendDynamoDB:
		if cfg.DynamoDBTable == "" {
			return nil, errors.New("DYNAMODB_TABLE is required when FAVORITES_BACKEND=dynamodb")
		}
	default:
		return nil, fmt.Errorf("unknown FAVORITES_BACKEND %q", cfg.FavoritesBackend)
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
