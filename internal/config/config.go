package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	SpreadsheetID  string
	SpreadsheetURL string
	WorksheetName  string

	GoogleServiceAccountJSON string
	GoogleClientID           string
	GoogleClientSecret       string
	GoogleRefreshToken       string

	SheetsRetryCount int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SpreadsheetID:  getEnv("SHEETS_SPREADSHEET_ID", ""),
		SpreadsheetURL: getEnv("SHEETS_SPREADSHEET_URL", ""),
		WorksheetName:  getEnv("SHEETS_WORKSHEET_NAME", "Sheet1"),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleClientID:           getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:       getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken:       getEnv("GOOGLE_REFRESH_TOKEN", ""),

		SheetsRetryCount: getEnvInt("SHEETS_RETRY_COUNT", 3),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
