package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// DomainRestriction controls which discovered URLs are eligible for the
// frontier.
type DomainRestriction string

// Domain restriction modes.
const (
	// RestrictionOff allows any http(s) URL.
	RestrictionOff DomainRestriction = "off"

	// RestrictionHost allows any URL on the same host as the base URL.
	RestrictionHost DomainRestriction = "host"

	// RestrictionRoot allows only URLs under the base URL path. This is
	// the default and the safest mode.
	RestrictionRoot DomainRestriction = "root"
)

// Default configuration values. Chosen to match polite crawling of a
// documentation site; all can be overridden per run.
const (
	// DefaultWorkers is the bounded worker pool size for the scrape phase.
	// The bound is I/O-driven, not CPU-driven, so it is configured
	// explicitly rather than derived from GOMAXPROCS.
	DefaultWorkers = 5

	// DefaultRequestDelay is the steady interval between fetch attempts.
	// The rate limiter refills at 1/delay tokens per second.
	DefaultRequestDelay = 1500 * time.Millisecond

	// DefaultMaxRetries is the retry ceiling per page across phases.
	DefaultMaxRetries = 3

	// DefaultMaxConsecutiveFailures aborts the whole run when this many
	// pages fail back to back. A long unbroken failure streak means the
	// site or the network is down, not that twenty pages happen to be bad.
	DefaultMaxConsecutiveFailures = 20

	// DefaultMaxCrawlDepth bounds link-following distance from the seed.
	DefaultMaxCrawlDepth = 5

	// DefaultMaxPages bounds the total pages fetched in one run.
	DefaultMaxPages = 1500

	// DefaultMaxRuntime bounds wall-clock run time. Exceeding it is a
	// fatal, run-terminating error; the frontier stays resumable.
	DefaultMaxRuntime = 120 * time.Minute

	// DefaultTimeout is the per-request fetch timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "docmirror/1.0 (+https://github.com/docmirror/docmirror)"

	// DefaultOutputDir is where markdown files are written.
	DefaultOutputDir = "./output"

	// AppName is used for XDG directory paths.
	AppName = "docmirror"

	// envPrefix is the prefix for all environment overrides.
	envPrefix = "DOCMIRROR_"
)

// Config holds all options for one crawler invocation. It is populated from
// defaults, the config file, DOCMIRROR_* environment variables, and CLI
// flags, in that order, then validated once before the run starts.
type Config struct {
	// BaseURL is the documentation root, e.g.
	// https://support.example.com/product. Discovery seeds from
	// BaseURL/docs/ and, optionally, BaseURL/resources/.
	BaseURL string

	// OutputDir is the root directory for generated markdown and images.
	OutputDir string

	// StateDir is the directory holding the frontier database. Defaults to
	// the XDG data directory so state survives independent of OutputDir.
	StateDir string

	// Workers is the scrape-phase worker pool size. The final retry phase
	// runs at half this value.
	Workers int

	// RequestDelay is the steady delay between fetch attempts, shared by
	// all workers through the token bucket.
	RequestDelay time.Duration

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration

	// MaxRetries is the per-page retry ceiling across phases.
	MaxRetries int

	// MaxConsecutiveFailures is the fatal failure-streak ceiling. This is
	// a global safety valve distinct from the circuit breaker, which only
	// gates individual attempts.
	MaxConsecutiveFailures int

	// MaxCrawlDepth caps link-following depth. 0 disables the cap.
	MaxCrawlDepth int

	// MaxPages caps total pages fetched. 0 disables the cap.
	MaxPages int

	// MaxRuntime caps wall-clock runtime. 0 disables the cap.
	MaxRuntime time.Duration

	// Restriction controls which discovered URLs enter the frontier.
	Restriction DomainRestriction

	// UserAgent is sent on every fetch and image download.
	UserAgent string

	// Resume keeps the existing frontier and continues from it. When
	// false the frontier is cleared for a fresh crawl.
	Resume bool

	// DryRun scrapes against an already-populated frontier without
	// discovery, image downloads, link fixing, or linting.
	DryRun bool

	// IncludeResources also seeds BaseURL/resources/ during discovery.
	IncludeResources bool

	// NoLint skips the final markdown lint phase.
	NoLint bool

	// RedirectStubs writes a small stub file for redirected URLs instead
	// of silently pointing them at the canonical file.
	RedirectStubs bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit .docmirror path. Empty means search
	// the working directory and then the home directory.
	ConfigFilePath string
}

// New returns a Config populated with defaults and the XDG state directory.
func New() *Config {
	return &Config{
		OutputDir:              DefaultOutputDir,
		StateDir:               XDGDataDir(),
		Workers:                DefaultWorkers,
		RequestDelay:           DefaultRequestDelay,
		Timeout:                DefaultTimeout,
		MaxRetries:             DefaultMaxRetries,
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		MaxCrawlDepth:          DefaultMaxCrawlDepth,
		MaxPages:               DefaultMaxPages,
		MaxRuntime:             DefaultMaxRuntime,
		Restriction:            RestrictionRoot,
		UserAgent:              DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for docmirror
// (~/.local/share/docmirror on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docmirror.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyEnv overlays DOCMIRROR_* environment variables onto c. Unset or
// malformed variables leave the current value in place; Validate reports
// out-of-range results afterwards.
func (c *Config) ApplyEnv() {
	if v := getenv("BASE_URL"); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := getenv("REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestDelay = d
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			// Bare numbers are seconds, for parity with older setups.
			c.RequestDelay = time.Duration(f * float64(time.Second))
		}
	}
	if v := getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := getenv("MAX_CONSECUTIVE_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConsecutiveFailures = n
		}
	}
	if v := getenv("MAX_CRAWL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxCrawlDepth = n
		}
	}
	if v := getenv("MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPages = n
		}
	}
	if v := getenv("MAX_RUNTIME_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRuntime = time.Duration(n) * time.Minute
		}
	}
	if v := getenv("DOMAIN_RESTRICTION"); v != "" {
		c.Restriction = DomainRestriction(v)
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.UserAgent = v
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

// Validate checks the configuration and returns the first problem found.
// Called once after all layers are applied, before any crawling begins.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Workers < 1 || c.Workers > 50 {
		return ErrInvalidWorkers
	}

	if c.RequestDelay < 100*time.Millisecond || c.RequestDelay > 60*time.Second {
		return ErrInvalidDelay
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return ErrInvalidMaxRetries
	}

	if c.MaxCrawlDepth < 0 || c.MaxCrawlDepth > 10 {
		return ErrInvalidMaxDepth
	}

	if c.MaxConsecutiveFailures < 5 {
		return ErrInvalidConsecutiveFailures
	}

	switch c.Restriction {
	case RestrictionOff, RestrictionHost, RestrictionRoot:
	default:
		return ErrInvalidDomainRestriction
	}

	return nil
}

// AllowURL reports whether a discovered URL passes the domain restriction.
func (c *Config) AllowURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	switch c.Restriction {
	case RestrictionOff:
		return true
	case RestrictionHost:
		base, err := url.Parse(c.BaseURL)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, base.Host)
	default: // RestrictionRoot
		return strings.HasPrefix(strings.TrimRight(raw, "/"), strings.TrimRight(c.BaseURL, "/"))
	}
}
