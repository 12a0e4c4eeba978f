package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all council sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	UseColly       bool    `yaml:"use_colly,omitempty"`       // Rate-limited/retrying fetcher
}

// SourceConfig defines a single council listing page.
type SourceConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`

	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// NoticePDFDates enables pulling the closing date out of an entry's
	// notice document when the page heading fails to parse. Costs one
	// extra fetch per entry.
	NoticePDFDates bool `yaml:"notice_pdf_dates,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml and returns a Registry.
// The path parameter is kept for local development overrides.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		// Fallback to filesystem for local development
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${MORPH_URL})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}

// Source returns the configuration for the given source id.
func (r *Registry) Source(id string) (*SourceConfig, error) {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("source id %q not found in registry", id)
}
