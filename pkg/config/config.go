package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	GitHub    GitHubConfig
	Signing   SigningConfig
	Agreement AgreementConfig
	Reporter  ReporterConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type DatabaseConfig struct {
	Path string
}

type GitHubConfig struct {
	Token          string
	WebhookSecret  string
	RequestTimeout int
}

type SigningConfig struct {
	JWTSecret string
	PageURL   string
}

type AgreementConfig struct {
	GrandfatherPriorVersions bool
	ExemptAccounts           []string
}

type ReporterConfig struct {
	CheckName   string
	MaxAttempts int
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./clagate.db"),
		},
		GitHub: GitHubConfig{
			Token:          getEnv("GITHUB_TOKEN", ""),
			WebhookSecret:  getEnv("GITHUB_WEBHOOK_SECRET", ""),
			RequestTimeout: getEnvAsInt("GITHUB_REQUEST_TIMEOUT", 10),
		},
		Signing: SigningConfig{
			JWTSecret: getEnv("SIGNING_JWT_SECRET", ""),
			PageURL:   getEnv("SIGNING_PAGE_URL", "https://cla.example.com/sign"),
		},
		Agreement: AgreementConfig{
			GrandfatherPriorVersions: getEnvAsBool("GRANDFATHER_PRIOR_VERSIONS", false),
			ExemptAccounts:           getEnvAsList("EXEMPT_ACCOUNTS"),
		},
		Reporter: ReporterConfig{
			CheckName:   getEnv("CHECK_NAME", "license/cla"),
			MaxAttempts: getEnvAsInt("REPORT_MAX_ATTEMPTS", 5),
		},
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into a slice
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
