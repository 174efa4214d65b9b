package health

import (
	"context"
	"sync"
	"time"
)

// Check names reported in Status.Checks.
const (
	CheckDiskSpace = "disk_space"
	CheckMemory    = "memory"
	CheckCPU       = "cpu"
	CheckNetwork   = "network"
	CheckOutputDir = "output_directory"
)

// maxWarnings bounds the warning history kept in the snapshot.
const maxWarnings = 10

// Check is the outcome of a single probe.
type Check struct {
	Healthy bool
	Message string
}

// Status is a snapshot of all checks.
type Status struct {
	// Healthy is true when every check passed.
	Healthy bool

	// Checks maps check name to outcome.
	Checks map[string]Check

	// Warnings holds the most recent warning messages, oldest first.
	Warnings []string
}

// Monitor runs health checks. The orchestrator depends on this interface
// so tests can inject deterministic outcomes.
type Monitor interface {
	Check(ctx context.Context) Status
}

// SystemMonitor probes the local system and the target site.
type SystemMonitor struct {
	mu       sync.Mutex
	warnings []string

	// outputDir is the crawl output directory checked for writability.
	outputDir string

	// probeURLs are fetched to confirm network reachability; any success
	// counts.
	probeURLs []string

	// httpTimeout bounds each network probe.
	httpTimeout time.Duration
}

// NewSystemMonitor creates a monitor for the given output directory and
// network probe URLs.
func NewSystemMonitor(outputDir string, probeURLs []string) *SystemMonitor {
	return &SystemMonitor{
		outputDir:   outputDir,
		probeURLs:   probeURLs,
		httpTimeout: 10 * time.Second,
	}
}

// Check runs all probes and returns the combined status.
func (m *SystemMonitor) Check(ctx context.Context) Status {
	checks := map[string]Check{
		CheckDiskSpace: m.checkDisk(),
		CheckMemory:    m.checkMemory(),
		CheckCPU:       m.checkCPU(),
		CheckNetwork:   m.checkNetwork(ctx),
		CheckOutputDir: m.checkOutputDir(),
	}

	healthy := true
	for name, c := range checks {
		if !c.Healthy {
			healthy = false
			m.addWarning(name + ": " + c.Message)
		}
	}

	m.mu.Lock()
	warnings := make([]string, len(m.warnings))
	copy(warnings, m.warnings)
	m.mu.Unlock()

	return Status{
		Healthy:  healthy,
		Checks:   checks,
		Warnings: warnings,
	}
}

func (m *SystemMonitor) addWarning(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.warnings = append(m.warnings, msg)
	if len(m.warnings) > maxWarnings {
		m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
	}
}
