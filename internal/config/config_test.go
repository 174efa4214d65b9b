package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	c := New()
	c.BaseURL = "https://support.example.com/product"
	return c
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults with a base URL pass", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing base URL", func(t *testing.T) {
		t.Parallel()
		c := New()
		if err := c.Validate(); !errors.Is(err, ErrNoBaseURL) {
			t.Errorf("Validate() = %v, want ErrNoBaseURL", err)
		}
	})

	t.Run("relative base URL", func(t *testing.T) {
		t.Parallel()
		c := New()
		c.BaseURL = "support.example.com/product"
		if err := c.Validate(); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("Validate() = %v, want ErrInvalidBaseURL", err)
		}
	})

	t.Run("non-http scheme", func(t *testing.T) {
		t.Parallel()
		c := New()
		c.BaseURL = "ftp://example.com/docs"
		if err := c.Validate(); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("Validate() = %v, want ErrInvalidBaseURL", err)
		}
	})

	t.Run("worker bounds", func(t *testing.T) {
		t.Parallel()
		for _, n := range []int{0, -1, 51} {
			c := validConfig()
			c.Workers = n
			if err := c.Validate(); !errors.Is(err, ErrInvalidWorkers) {
				t.Errorf("Workers=%d: Validate() = %v, want ErrInvalidWorkers", n, err)
			}
		}
	})

	t.Run("delay bounds", func(t *testing.T) {
		t.Parallel()
		for _, d := range []time.Duration{0, 50 * time.Millisecond, 2 * time.Minute} {
			c := validConfig()
			c.RequestDelay = d
			if err := c.Validate(); !errors.Is(err, ErrInvalidDelay) {
				t.Errorf("RequestDelay=%s: Validate() = %v, want ErrInvalidDelay", d, err)
			}
		}
	})

	t.Run("unknown restriction", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.Restriction = "same-domain"
		if err := c.Validate(); !errors.Is(err, ErrInvalidDomainRestriction) {
			t.Errorf("Validate() = %v, want ErrInvalidDomainRestriction", err)
		}
	})
}

func TestAllowURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		restriction DomainRestriction
		url         string
		want        bool
	}{
		{"root allows child path", RestrictionRoot, "https://support.example.com/product/docs/intro", true},
		{"root allows base itself", RestrictionRoot, "https://support.example.com/product", true},
		{"root rejects sibling path", RestrictionRoot, "https://support.example.com/other/docs", false},
		{"root rejects other host", RestrictionRoot, "https://evil.example.net/product/docs", false},
		{"host allows sibling path", RestrictionHost, "https://support.example.com/other/docs", true},
		{"host is case insensitive", RestrictionHost, "https://SUPPORT.example.com/x", true},
		{"host rejects other host", RestrictionHost, "https://docs.example.com/x", false},
		{"off allows anything http", RestrictionOff, "http://anywhere.test/page", true},
		{"off rejects mailto", RestrictionOff, "mailto:team@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			c.Restriction = tt.restriction
			if got := c.AllowURL(tt.url); got != tt.want {
				t.Errorf("AllowURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DOCMIRROR_BASE_URL", "https://support.example.com/product/")
	t.Setenv("DOCMIRROR_WORKERS", "8")
	t.Setenv("DOCMIRROR_REQUEST_DELAY", "2.5")
	t.Setenv("DOCMIRROR_DOMAIN_RESTRICTION", "host")

	c := New()
	c.ApplyEnv()

	if c.BaseURL != "https://support.example.com/product" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL)
	}
	if c.Workers != 8 {
		t.Errorf("Workers = %d, want 8", c.Workers)
	}
	if c.RequestDelay != 2500*time.Millisecond {
		t.Errorf("RequestDelay = %s, want 2.5s", c.RequestDelay)
	}
	if c.Restriction != RestrictionHost {
		t.Errorf("Restriction = %q, want host", c.Restriction)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() after env = %v, want nil", err)
	}
}

func TestApplyEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("DOCMIRROR_WORKERS", "many")

	c := New()
	c.ApplyEnv()
	if c.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want default %d", c.Workers, DefaultWorkers)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := `
defaults:
  workers: 3
  delay: 2s
sites:
  "https://support.example.com/product/":
    depth: 4
    max_pages: 800
    include_resources: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}

	c := validConfig()
	f.Apply(c)

	if c.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from defaults", c.Workers)
	}
	if c.RequestDelay != 2*time.Second {
		t.Errorf("RequestDelay = %s, want 2s from defaults", c.RequestDelay)
	}
	if c.MaxCrawlDepth != 4 {
		t.Errorf("MaxCrawlDepth = %d, want 4 from site section", c.MaxCrawlDepth)
	}
	if c.MaxPages != 800 {
		t.Errorf("MaxPages = %d, want 800 from site section", c.MaxPages)
	}
	if !c.IncludeResources {
		t.Error("IncludeResources should be set from site section")
	}
}

func TestLoadFileBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("defaults: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should fail on malformed YAML")
	}
}

func TestFindConfigFileExplicitMissing(t *testing.T) {
	t.Parallel()

	if _, err := FindConfigFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("FindConfigFile() should fail for a missing explicit path")
	}
}
