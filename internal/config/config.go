package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL points at the backend's local development address.
const DefaultAPIURL = "http://localhost:8000"

// Config holds the runtime settings for the client and the fixture backend.
type Config struct {
	APIURL          string
	DownloadDir     string
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	LogFile         string
	LogLevel        string
	ThemeFile       string
	FixturePort     int
}

// Load reads .env (if any) and the process environment. A missing .env file
// is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg := Config{
		APIURL:          strings.TrimRight(getString("VIDEXTRACT_API_URL", DefaultAPIURL), "/"),
		DownloadDir:     getString("VIDEXTRACT_DOWNLOAD_DIR", defaultDownloadDir()),
		RequestTimeout:  getDuration("VIDEXTRACT_REQUEST_TIMEOUT", 30*time.Second),
		DownloadTimeout: getDuration("VIDEXTRACT_DOWNLOAD_TIMEOUT", 10*time.Minute),
		LogFile:         getString("VIDEXTRACT_LOG_FILE", filepath.Join("storage", "logs", "vidextract.log")),
		LogLevel:        getString("VIDEXTRACT_LOG_LEVEL", "info"),
		ThemeFile:       getString("VIDEXTRACT_THEME_FILE", defaultThemeFile()),
		FixturePort:     getInt("VIDEXTRACT_FIXTURE_PORT", 8000),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the API URL is an absolute http(s) address.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("config: invalid VIDEXTRACT_API_URL %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: VIDEXTRACT_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("config: download directory is empty")
	}
	return nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Downloads")
}

func defaultThemeFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("storage", "theme.env")
	}
	return filepath.Join(dir, "vidextract", "theme.env")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
