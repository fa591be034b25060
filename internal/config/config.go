package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Service-to-service auth for the push endpoint
	ServiceAPIKey string

	// APNs push configuration
	APNsKeyID       string
	APNsTeamID      string
	APNsPrivateKey  string // PEM, \n escapes accepted
	APNsBundleID    string
	APNsEnvironment string // "sandbox" or "production"

	// OpenAI configuration (chore analysis / suggestions)
	OpenAIAPIKey string

	// Brevo email configuration (waitlist confirmations)
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	// Waitlist rate limit
	WaitlistRateLimitMinutes int
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                     getEnv("PORT", "8080"),
		Mode:                     getEnv("GIN_MODE", "debug"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServiceAPIKey:            getEnv("SERVICE_API_KEY", ""),
		APNsKeyID:                getEnv("APNS_KEY_ID", ""),
		APNsTeamID:               getEnv("APNS_TEAM_ID", ""),
		APNsPrivateKey:           getEnv("APNS_PRIVATE_KEY", ""),
		APNsBundleID:             getEnv("APNS_BUNDLE_ID", ""),
		APNsEnvironment:          getEnv("APNS_ENVIRONMENT", "sandbox"),
		OpenAIAPIKey:             getEnv("OPENAI_API_KEY", ""),
		BrevoAPIKey:              getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:           getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:            getEnv("BREVO_FROM_NAME", "Chores App"),
		WaitlistRateLimitMinutes: getEnvInt("WAITLIST_RATE_LIMIT_MINUTES", 1),
	}

	return nil
}

// SecretPresence reports which required secrets are configured without ever
// exposing their values. Used by health and webhook status endpoints.
func (c *Config) SecretPresence() map[string]string {
	flags := map[string]bool{
		"database_url":     c.DatabaseURL != "",
		"service_api_key":  c.ServiceAPIKey != "",
		"apns_key_id":      c.APNsKeyID != "",
		"apns_team_id":     c.APNsTeamID != "",
		"apns_private_key": c.APNsPrivateKey != "",
		"apns_bundle_id":   c.APNsBundleID != "",
		"openai_api_key":   c.OpenAIAPIKey != "",
	}

	presence := make(map[string]string, len(flags))
	for name, set := range flags {
		if set {
			presence[name] = "set"
		} else {
			presence[name] = "missing"
		}
	}
	return presence
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
