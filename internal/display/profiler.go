package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrProfilerNotAvailable is returned when system_profiler is not installed.
var ErrProfilerNotAvailable = errors.New("system_profiler is not available in PATH")

// Record is one OS-reported display entry. The ID is opaque and only
// comparable by equality; macOS may hand out a different one after a
// reboot or reconnect, which is the whole reason this tool exists.
type Record struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Resolution string `json:"resolution"`
	Pixels     string `json:"pixels,omitempty"`
	Main       bool   `json:"main"`
	Online     bool   `json:"online"`
}

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ProfilerConfig holds configuration for the enumerator.
type ProfilerConfig struct {
	Timeout    time.Duration // per-attempt ceiling, default 10s
	Retries    int           // total attempts, default 3
	RetryDelay time.Duration // default 500ms
	Runner     Runner        // command execution hook, default os/exec
}

// Profiler enumerates displays via `system_profiler SPDisplaysDataType -json`.
// Right after a display reconnect system_profiler occasionally returns empty
// output, so enumeration retries a few times before giving up.
type Profiler struct {
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	run        Runner
}

// NewProfiler creates an enumerator with the given configuration.
func NewProfiler(cfg ProfilerConfig) *Profiler {
	p := &Profiler{
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		run:        cfg.Runner,
	}
	if p.timeout <= 0 {
		p.timeout = 10 * time.Second
	}
	if p.retries <= 0 {
		p.retries = 3
	}
	if p.retryDelay <= 0 {
		p.retryDelay = 500 * time.Millisecond
	}
	if p.run == nil {
		p.run = defaultRunner
	}
	return p
}

// Available returns true if system_profiler is installed.
func (p *Profiler) Available() bool {
	_, err := exec.LookPath("system_profiler")
	return err == nil
}

// List returns all displays in enumeration order. An empty list is a valid
// result (e.g. all displays disconnected); errors mean the underlying
// command failed or produced unparsable output on every attempt.
func (p *Profiler) List(ctx context.Context) ([]Record, error) {
	var lastErr error
	for attempt := 0; attempt < p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}

		records, err := p.listOnce(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(records) > 0 {
			return records, nil
		}
		// Empty set right after a reconnect is often transient.
		lastErr = nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func (p *Profiler) listOnce(ctx context.Context) ([]Record, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(runCtx, "system_profiler", "SPDisplaysDataType", "-json")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrProfilerNotAvailable
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("system_profiler timed out after %s", p.timeout)
		}
		return nil, fmt.Errorf("system_profiler failed: %w", err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, nil
	}
	return parseProfilerJSON(out)
}

// profilerReport mirrors the relevant slice of system_profiler's -json
// output: one entry per GPU, each carrying its attached displays.
type profilerReport struct {
	GPUs []struct {
		Displays []profilerDisplay `json:"spdisplays_ndrvs"`
	} `json:"SPDisplaysDataType"`
}

type profilerDisplay struct {
	Name       string `json:"_name"`
	DisplayID  string `json:"_spdisplays_displayID"`
	Resolution string `json:"_spdisplays_resolution"`
	Pixels     string `json:"_spdisplays_pixels"`
	Main       string `json:"spdisplays_main"`
	Online     string `json:"spdisplays_online"`
}

func parseProfilerJSON(data []byte) ([]Record, error) {
	var report profilerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse system_profiler output: %w", err)
	}

	var records []Record
	for _, gpu := range report.GPUs {
		for _, d := range gpu.Displays {
			name := d.Name
			if name == "" {
				name = "Unknown"
			}
			records = append(records, Record{
				Name:       name,
				ID:         normalizeID(d.DisplayID),
				Resolution: d.Resolution,
				Pixels:     d.Pixels,
				Main:       d.Main == "spdisplays_yes",
				Online:     d.Online == "spdisplays_yes",
			})
		}
	}
	return records, nil
}

// normalizeID converts the display ID to the decimal form Sunshine expects.
// macOS reports the ID in hex without a prefix (e.g. "a" for 10); anything
// that does not parse as hex passes through untouched.
func normalizeID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	n, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatUint(n, 10)
}
