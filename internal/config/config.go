package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for granola-sync.
type Config struct {
	// Path to Granola's supabase.json, which carries the API access token.
	SupabaseFile string `env:"GRANOLA_SUPABASE_FILE"`

	// Path to Granola's local cache file (cache-v3.json). Empty means the
	// platform default under the user's Application Support directory.
	CacheFile string `env:"GRANOLA_CACHE_FILE"`

	// Directory the folder tree of exported .txt files is written to.
	OutputDir string `env:"GRANOLA_OUTPUT_DIR"`

	// Folder names excluded from sync, comma separated. Merged with the
	// sidecar config in the output directory at the start of each pass.
	ExcludedFolders []string `env:"GRANOLA_EXCLUDED_FOLDERS" envSeparator:","`

	// Optional YAML file with webhook endpoint definitions. Empty
	// disables webhook dispatch.
	WebhooksFile string `env:"GRANOLA_WEBHOOKS_FILE"`

	// How often the daemon runs a sync pass.
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"10m"`

	// Timeout for Granola API requests.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"120s"`

	// Watch the cache file and trigger an extra pass when Granola
	// writes new data.
	EnableWatch bool `env:"ENABLE_WATCH" envDefault:"true"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the supabase path or webhook URLs to
// other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables. It first attempts
// to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.CacheFile == "" {
		cfg.CacheFile = DefaultCachePath()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve OutputDir to an absolute path at startup. The sync engine
	// compares scanned paths against computed target paths by string
	// equality, which only works reliably with absolute paths.
	absDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output dir to absolute path: %w", err)
	}

	cfg.OutputDir = absDir

	// Drop empty entries left by trailing commas in the exclusion list.
	cfg.ExcludedFolders = compactList(cfg.ExcludedFolders)

	return cfg, nil
}

func (c *Config) validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("GRANOLA_OUTPUT_DIR is required")
	}

	if c.SupabaseFile == "" {
		return fmt.Errorf("GRANOLA_SUPABASE_FILE is required")
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultCachePath returns Granola's cache file location on macOS:
// ~/Library/Application Support/Granola/cache-v3.json. On other
// platforms the same layout is assumed under the home directory, which
// matches how cloud-drive setups mirror the file.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, "Library", "Application Support", "Granola", "cache-v3.json")
}

func compactList(items []string) []string {
	var out []string

	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}

	return out
}
