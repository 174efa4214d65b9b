package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestSystemMonitorHealthyEnvironment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.md"), []byte("# p"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewSystemMonitor(dir, []string{srv.URL})
	status := m.Check(context.Background())

	if !status.Checks[CheckNetwork].Healthy {
		t.Errorf("network check failed: %s", status.Checks[CheckNetwork].Message)
	}
	if !status.Checks[CheckOutputDir].Healthy {
		t.Errorf("output dir check failed: %s", status.Checks[CheckOutputDir].Message)
	}
	for _, name := range []string{CheckDiskSpace, CheckMemory, CheckCPU, CheckNetwork, CheckOutputDir} {
		if _, ok := status.Checks[name]; !ok {
			t.Errorf("missing check %s", name)
		}
	}
}

func TestSystemMonitorNetworkFailure(t *testing.T) {
	t.Parallel()

	// A closed server is unreachable.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewSystemMonitor(t.TempDir(), []string{url})
	status := m.Check(context.Background())

	if status.Checks[CheckNetwork].Healthy {
		t.Error("network check should fail with no reachable probe")
	}
	if status.Healthy {
		t.Error("overall status should be unhealthy")
	}
	if len(status.Warnings) == 0 {
		t.Error("warnings should record the failure")
	}
}

func TestSystemMonitorUnwritableOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "missing", "nested")

	m := NewSystemMonitor(dir, nil)
	status := m.Check(context.Background())

	if status.Checks[CheckOutputDir].Healthy {
		t.Error("output dir check should fail for a missing directory")
	}
}

func TestWarningsBounded(t *testing.T) {
	t.Parallel()

	m := NewSystemMonitor(t.TempDir(), nil)
	for i := 0; i < 25; i++ {
		m.addWarning("warning")
	}

	m.mu.Lock()
	n := len(m.warnings)
	m.mu.Unlock()
	if n != maxWarnings {
		t.Errorf("warnings kept = %d, want %d", n, maxWarnings)
	}
}
