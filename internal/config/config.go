package config

import (
	"errors"
	"os"
	"strings"
)

// Config contains runtime configuration required by the service.
type Config struct {
	DBURL string
	Port  string
}

// Load reads required values from environment variables.
func Load() (Config, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	return Config{
		DBURL: dbURL,
		Port:  port,
	}, nil
}
