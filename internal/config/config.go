package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port              string
	MongoURI          string
	Database          string
	ClientOrigins     []string
	FirebaseProjectID string
	StripeSecretKey   string
	Environment       string
	MaxPageLimit      int64
}

// LoadDotEnv populates the environment from .env when the file exists.
// It reports whether a file was loaded.
func LoadDotEnv() bool {
	return godotenv.Load(".env") == nil
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:            fallback(os.Getenv("PORT"), "3000"),
		MongoURI:        strings.TrimSpace(os.Getenv("MONGODB_URI")),
		Database:        fallback(os.Getenv("MONGODB_DATABASE"), "eduPlusDB"),
		ClientOrigins:   parseCSV(fallback(os.Getenv("CLIENT_DOMAIN"), "http://localhost:5173")),
		StripeSecretKey: strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		Environment:     fallback(os.Getenv("APP_ENV"), "development"),
		MaxPageLimit:    100,
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_PAGE_LIMIT")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return Config{}, fmt.Errorf("MAX_PAGE_LIMIT must be a non-negative integer, got %q", raw)
		}
		cfg.MaxPageLimit = limit
	}

	cfg.FirebaseProjectID = strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID"))
	if cfg.FirebaseProjectID == "" {
		projectID, err := projectIDFromServiceKey(os.Getenv("FB_SERVICE_KEY"))
		if err != nil {
			return Config{}, err
		}
		cfg.FirebaseProjectID = projectID
	}

	if cfg.MongoURI == "" {
		return Config{}, errors.New("MONGODB_URI is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, errors.New("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ClientURL is the frontend base used for payment redirects.
func (c Config) ClientURL() string {
	if len(c.ClientOrigins) == 0 || c.ClientOrigins[0] == "*" {
		return "http://localhost:5173"
	}
	return strings.TrimRight(c.ClientOrigins[0], "/")
}

// projectIDFromServiceKey decodes the base64 service-account JSON and
// returns its project_id.
func projectIDFromServiceKey(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", errors.New("FB_SERVICE_KEY or FIREBASE_PROJECT_ID is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode FB_SERVICE_KEY: %w", err)
	}
	var account struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(decoded, &account); err != nil {
		return "", fmt.Errorf("parse FB_SERVICE_KEY: %w", err)
	}
	if account.ProjectID == "" {
		return "", errors.New("FB_SERVICE_KEY has no project_id")
	}
	return account.ProjectID, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
