// Package webhook delivers document events to user-configured HTTP
// endpoints and keeps a bounded delivery history for replay.
package webhook

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexjbarnes/granola-sync/internal/errors"
)

// Endpoint is one configured webhook target.
type Endpoint struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Method  string   `yaml:"method"`
	Enabled bool     `yaml:"enabled"`
	Folders []string `yaml:"folders"`

	// Folder is the legacy single-folder field; migrated into Folders
	// on load.
	Folder string `yaml:"folder,omitempty"`
}

// configFile is the YAML document shape on disk.
type configFile struct {
	Webhooks []Endpoint `yaml:"webhooks"`
}

// LoadEndpoints reads webhook endpoints from a YAML file. A missing
// file means no webhooks are configured and is not an error.
func LoadEndpoints(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading webhook config: %w", err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrWebhookConfig, err)
	}

	for i := range cfg.Webhooks {
		normalize(&cfg.Webhooks[i])

		if err := cfg.Webhooks[i].validate(); err != nil {
			return nil, err
		}
	}

	return cfg.Webhooks, nil
}

func normalize(ep *Endpoint) {
	if ep.Method == "" {
		ep.Method = "POST"
	}

	ep.Method = strings.ToUpper(ep.Method)

	// Legacy configs carried a single folder string.
	if ep.Folder != "" && len(ep.Folders) == 0 {
		ep.Folders = []string{ep.Folder}
	}

	ep.Folder = ""
}

func (ep *Endpoint) validate() error {
	if ep.Name == "" {
		return fmt.Errorf("%w: endpoint missing name", errors.ErrWebhookConfig)
	}

	parsed, err := url.Parse(ep.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: endpoint %q has invalid url %q", errors.ErrWebhookConfig, ep.Name, ep.URL)
	}

	switch ep.Method {
	case "GET", "POST", "PUT", "PATCH":
	default:
		return fmt.Errorf("%w: endpoint %q has unsupported method %q", errors.ErrWebhookConfig, ep.Name, ep.Method)
	}

	return nil
}

// MatchesFolders reports whether the endpoint should receive events for
// a document in the given folders. An endpoint with no folder filter
// matches everything.
func (ep *Endpoint) MatchesFolders(folders []string) bool {
	if len(ep.Folders) == 0 {
		return true
	}

	for _, want := range ep.Folders {
		for _, have := range folders {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}

	return false
}
