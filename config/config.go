package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlCategoryRule maps feed name/URL keywords to a category slug.
// Rules are evaluated in order, first match wins.
type TomlCategoryRule struct {
	Slug     string   `toml:"slug"`
	Keywords []string `toml:"keywords,omitempty"`
	Domains  []string `toml:"domains,omitempty"`
}

// TomlFeed represents a feed to seed into the repository at startup
type TomlFeed struct {
	Name                 string `toml:"name"`
	SourceURL            string `toml:"source_url"`
	CategoryID           string `toml:"category_id,omitempty"`
	AuthorID             string `toml:"author_id,omitempty"`
	Enabled              bool   `toml:"enabled"`
	FetchIntervalMinutes int    `toml:"fetch_interval_minutes,omitempty"`
	MaxItemsPerFetch     int    `toml:"max_items_per_fetch,omitempty"`
	AutoPublish          bool   `toml:"auto_publish,omitempty"`
}

// TomlStorage holds the object storage settings for media offload
type TomlStorage struct {
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	Namespace       string `toml:"namespace,omitempty"`
	UseSSL          bool   `toml:"use_ssl"`
	PublicBaseURL   string `toml:"public_base_url,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	CategoryFallback string             `toml:"category_fallback,omitempty"`
	Categories       []TomlCategoryRule `toml:"categories"`
	Feeds            []TomlFeed         `toml:"feeds"`
	Storage          *TomlStorage       `toml:"storage,omitempty"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}
