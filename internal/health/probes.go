package health

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// Resource thresholds. A check fails only on a clear problem; borderline
// numbers are reported healthy with the measurement in the message.
const (
	minFreeDisk    = 1 << 30  // 1 GiB
	maxDiskUsedPct = 90.0
	minAvailMemory = 512 << 20 // 512 MiB
	maxMemUsedPct  = 85.0
	maxLoadPerCPU  = 0.9
)

// checkDisk verifies the filesystem holding the output directory has room.
func (m *SystemMonitor) checkDisk() Check {
	var st syscall.Statfs_t
	if err := syscall.Statfs(m.outputDir, &st); err != nil {
		return Check{Healthy: true, Message: fmt.Sprintf("statfs unavailable: %v", err)}
	}

	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	if total == 0 {
		return Check{Healthy: true, Message: "filesystem reports zero size"}
	}
	usedPct := float64(total-free) / float64(total) * 100

	if free < minFreeDisk {
		return Check{Message: fmt.Sprintf("only %d MiB free", free>>20)}
	}
	if usedPct > maxDiskUsedPct {
		return Check{Message: fmt.Sprintf("filesystem %.0f%% full", usedPct)}
	}
	return Check{Healthy: true, Message: fmt.Sprintf("%d MiB free, %.0f%% used", free>>20, usedPct)}
}

// checkMemory reads /proc/meminfo. On platforms without procfs the check
// reports healthy.
func (m *SystemMonitor) checkMemory() Check {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return Check{Healthy: true, Message: "meminfo unavailable"}
	}
	defer func() { _ = f.Close() }()

	var totalKB, availKB uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			availKB, _ = strconv.ParseUint(fields[1], 10, 64)
		}
	}
	if totalKB == 0 || availKB == 0 {
		return Check{Healthy: true, Message: "meminfo incomplete"}
	}

	availBytes := availKB << 10
	usedPct := float64(totalKB-availKB) / float64(totalKB) * 100

	if availBytes < minAvailMemory {
		return Check{Message: fmt.Sprintf("only %d MiB available", availBytes>>20)}
	}
	if usedPct > maxMemUsedPct {
		return Check{Message: fmt.Sprintf("memory %.0f%% used", usedPct)}
	}
	return Check{Healthy: true, Message: fmt.Sprintf("%d MiB available, %.0f%% used", availBytes>>20, usedPct)}
}

// checkCPU compares the 1-minute load average against the CPU count.
func (m *SystemMonitor) checkCPU() Check {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return Check{Healthy: true, Message: "loadavg unavailable"}
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Check{Healthy: true, Message: "loadavg empty"}
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Check{Healthy: true, Message: "loadavg unparsable"}
	}

	perCPU := load / float64(runtime.NumCPU())
	if perCPU > maxLoadPerCPU {
		return Check{Message: fmt.Sprintf("load %.2f per CPU", perCPU)}
	}
	return Check{Healthy: true, Message: fmt.Sprintf("load %.2f per CPU", perCPU)}
}

// checkNetwork sends HEAD requests to the probe URLs; any success passes.
func (m *SystemMonitor) checkNetwork(ctx context.Context) Check {
	if len(m.probeURLs) == 0 {
		return Check{Healthy: true, Message: "no probe URLs configured"}
	}

	client := &http.Client{Timeout: m.httpTimeout}
	var lastErr error
	for _, probe := range m.probeURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probe, nil)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()
		return Check{Healthy: true, Message: "reached " + probe}
	}
	return Check{Message: fmt.Sprintf("all probes failed: %v", lastErr)}
}

// checkOutputDir verifies the output directory is writable and counts the
// markdown files written so far.
func (m *SystemMonitor) checkOutputDir() Check {
	probe := filepath.Join(m.outputDir, ".health_check")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		return Check{Message: fmt.Sprintf("output directory not writable: %v", err)}
	}
	_ = os.Remove(probe)

	count := 0
	_ = filepath.WalkDir(m.outputDir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			count++
		}
		return nil
	})
	return Check{Healthy: true, Message: fmt.Sprintf("writable, %d markdown files", count)}
}
