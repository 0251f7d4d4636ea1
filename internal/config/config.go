package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	CentralURL    string
	HTTPAddr      string
	CookieSecret  string
	SessionFile   string
	SessionSecret string
	Timeout       time.Duration
	ConsoleTTL    time.Duration
	MaxUploadSize int64
	GELFAddr      string
	TraceDB       string
}

// Load reads the configuration from the environment after loading envFiles
// (default ".env"). Missing env files are ignored.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: could not load %s: %v", f, err)
		}
	}
	return &Config{
		CentralURL:    getEnv("CENTRAL_URL", "http://localhost:8383"),
		HTTPAddr:      getEnv("CENTRAL_ADDR", ":8080"),
		CookieSecret:  getEnv("CENTRAL_COOKIE_SECRET", "central-admin-dev-secret-change-me"),
		SessionFile:   getEnv("CENTRAL_SESSION_FILE", defaultSessionFile()),
		SessionSecret: getEnv("CENTRAL_SESSION_SECRET", hostSecret()),
		Timeout:       getEnvDuration("CENTRAL_TIMEOUT", 30*time.Second),
		ConsoleTTL:    getEnvDuration("CENTRAL_CONSOLE_TTL", 2*time.Hour),
		MaxUploadSize: int64(getEnvInt("CENTRAL_MAX_UPLOAD", 100<<20)),
		GELFAddr:      getEnv("CENTRAL_GELF_ADDR", ""),
		TraceDB:       getEnv("CENTRAL_TRACE_DB", ""),
	}
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	if c.CentralURL == "" {
		return errors.New("config: CENTRAL_URL is required")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("config: invalid CENTRAL_MAX_UPLOAD %d", c.MaxUploadSize)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".central-session"
	}
	return filepath.Join(dir, "central-admin", "session")
}

// hostSecret ties the default session file key to the machine and user.
func hostSecret() string {
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return "central-admin:" + host + ":" + home
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
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
