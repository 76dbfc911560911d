package syncdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigFilename is the hidden sidecar stored in the output root. It
// rides along when the output directory is shared through a cloud drive,
// letting the exclusion list converge across machines.
const ConfigFilename = ".granola-sync.json"

// Config is the sidecar content: a last-writer-wins replica of the
// exclusion list.
type Config struct {
	ExcludedFolders []string `json:"excluded_folders"`
	UpdatedAt       string   `json:"updated_at"` // RFC 3339
}

// LoadConfig reads the sidecar from the output root. Returns nil with no
// error when the file is absent or unreadable as JSON; a broken sidecar
// is treated like a missing one.
func LoadConfig(root string) *Config {
	data, err := os.ReadFile(filepath.Join(root, ConfigFilename))
	if err != nil {
		return nil
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	return &cfg
}

// SaveConfig writes the sidecar with a fresh timestamp. The write goes
// through a temp file followed by a rename so a concurrent reader never
// sees a partial file.
func SaveConfig(root string, cfg Config) error {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	cfg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync config: %w", err)
	}

	target := filepath.Join(root, ConfigFilename)

	tmp, err := os.CreateTemp(root, ConfigFilename+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp sync config: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing sync config: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing sync config: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing sync config: %w", err)
	}

	return nil
}

// MergeExclusions picks the effective exclusion list for a pass by
// comparing the local settings timestamp against the sidecar's. The
// newer side wins; ties prefer local. Returns the effective list and
// whether the sidecar overrode local settings (so callers can update
// their own copy).
func MergeExclusions(localExcluded []string, localUpdated time.Time, sidecar *Config) ([]string, bool) {
	if sidecar == nil {
		return localExcluded, false
	}

	if localUpdated.IsZero() {
		return sidecar.ExcludedFolders, true
	}

	sidecarUpdated, err := time.Parse(time.RFC3339, sidecar.UpdatedAt)
	if err != nil {
		// Unparsable sidecar timestamp: prefer the sidecar, matching the
		// behavior for a missing local timestamp.
		return sidecar.ExcludedFolders, true
	}

	if sidecarUpdated.After(localUpdated) {
		return sidecar.ExcludedFolders, true
	}

	return localExcluded, false
}
