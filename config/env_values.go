package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment struct {
	// Client configs
	APIBaseURL         string
	LoginPath          string
	RequestTimeoutSecs int
	Environment        string

	// Dev server configs
	DevServerPort                    string
	CorsAllowedOrigin                string
	JWTSecret                        string
	JWTExpirationMilliseconds        int
	JWTRefreshExpirationMilliseconds int
	FixtureUserEmail                 string
	FixtureUserPassword              string
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Load .env file only if not running in Docker
	if os.Getenv("IS_DOCKER") != "true" {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Client configs
	Env.APIBaseURL = getEnvWithDefault("DOCQUERY_API_URL", "http://localhost:8000")
	Env.LoginPath = getEnvWithDefault("DOCQUERY_LOGIN_PATH", "/login")
	Env.RequestTimeoutSecs = getIntEnvWithDefault("DOCQUERY_REQUEST_TIMEOUT_SECS", 30)
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")

	// Dev server configs
	Env.DevServerPort = getEnvWithDefault("DOCQUERY_DEVSERVER_PORT", "8000")
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	Env.JWTSecret = getEnvWithDefault("JWT_SECRET", "docquery_jwt_secret")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*15)                      // 15 minutes default
	Env.JWTRefreshExpirationMilliseconds = getIntEnvWithDefault("JWT_REFRESH_EXPIRATION_MILLISECONDS", 1000*60*60*24*30) // 30 days default
	Env.FixtureUserEmail = getEnvWithDefault("DOCQUERY_DEV_USER_EMAIL", "dev@docquery.local")
	Env.FixtureUserPassword = getEnvWithDefault("DOCQUERY_DEV_USER_PASSWORD", "docquery-dev")

	return validateConfig()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	if !strings.HasPrefix(Env.APIBaseURL, "http://") && !strings.HasPrefix(Env.APIBaseURL, "https://") {
		return fmt.Errorf("invalid DOCQUERY_API_URL format: %s", Env.APIBaseURL)
	}

	if Env.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("DOCQUERY_REQUEST_TIMEOUT_SECS must be positive, got: %d", Env.RequestTimeoutSecs)
	}

	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	return nil
}
