package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for in the working directory and the
// home directory.
const FileName = ".docmirror"

// File is the on-disk shape of a .docmirror config file.
//
// Example:
//
//	defaults:
//	  workers: 3
//	  delay: 2s
//	sites:
//	  "https://support.example.com/product":
//	    depth: 4
//	    max_pages: 800
//	    include_resources: true
type File struct {
	// Defaults applies to every site unless overridden per site.
	Defaults SiteConfig `yaml:"defaults"`

	// Sites maps a base URL (trailing slash ignored) to its overrides.
	Sites map[string]SiteConfig `yaml:"sites"`
}

// SiteConfig is the subset of options that can be set from the config file.
// Zero values mean "not set" and leave the layered value untouched, so 0 is
// not usable to disable a cap from the file; use the CLI flag for that.
type SiteConfig struct {
	Workers          int           `yaml:"workers"`
	Delay            time.Duration `yaml:"delay"`
	Depth            int           `yaml:"depth"`
	MaxPages         int           `yaml:"max_pages"`
	MaxRetries       int           `yaml:"max_retries"`
	UserAgent        string        `yaml:"user_agent"`
	OutputDir        string        `yaml:"output_dir"`
	IncludeResources bool          `yaml:"include_resources"`
}

// FindConfigFile resolves the config file path. Search order:
//  1. the explicit path, which must exist if given
//  2. .docmirror in the current working directory
//  3. .docmirror in the home directory
//
// An empty return with a nil error means no config file, which is fine.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// LoadFile parses a .docmirror config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the file's defaults and the matching site section onto c.
// The site section wins over the defaults section. BaseURL must already be
// set on c for site matching to work.
func (f *File) Apply(c *Config) {
	f.Defaults.apply(c)
	if sc, ok := f.site(c.BaseURL); ok {
		sc.apply(c)
	}
}

func (f *File) site(baseURL string) (SiteConfig, bool) {
	want := strings.TrimRight(baseURL, "/")
	for url, sc := range f.Sites {
		if strings.TrimRight(url, "/") == want {
			return sc, true
		}
	}
	return SiteConfig{}, false
}

func (sc SiteConfig) apply(c *Config) {
	if sc.Workers > 0 {
		c.Workers = sc.Workers
	}
	if sc.Delay > 0 {
		c.RequestDelay = sc.Delay
	}
	if sc.Depth > 0 {
		c.MaxCrawlDepth = sc.Depth
	}
	if sc.MaxPages > 0 {
		c.MaxPages = sc.MaxPages
	}
	if sc.MaxRetries > 0 {
		c.MaxRetries = sc.MaxRetries
	}
	if sc.UserAgent != "" {
		c.UserAgent = sc.UserAgent
	}
	if sc.OutputDir != "" {
		c.OutputDir = sc.OutputDir
	}
	if sc.IncludeResources {
		c.IncludeResources = true
	}
}
