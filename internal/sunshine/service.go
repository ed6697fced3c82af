package sunshine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrRestartFailed is returned when every restart method has been tried.
var ErrRestartFailed = errors.New("could not restart sunshine")

// DefaultServiceNames are the brew formulas checked for Sunshine, in
// preference order.
var DefaultServiceNames = []string{"sunshine-beta", "sunshine"}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ServiceConfig holds configuration for the service controller.
type ServiceConfig struct {
	// Candidates are brew service names to probe, default DefaultServiceNames.
	Candidates []string
	// Runner is the command execution hook, default os/exec.
	Runner Runner
}

// Service controls the Sunshine process through brew services and launchctl,
// falling back to raw process signals when neither cooperates.
type Service struct {
	candidates []string
	run        Runner
}

// NewService creates a service controller with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		candidates: cfg.Candidates,
		run:        cfg.Runner,
	}
	if len(s.candidates) == 0 {
		s.candidates = DefaultServiceNames
	}
	if s.run == nil {
		s.run = defaultRunner
	}
	return s
}

// Detect returns the installed brew service flavor and whether brew reports
// it as started. An empty name means no Sunshine formula is installed.
func (s *Service) Detect(ctx context.Context) (string, bool, error) {
	runCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := s.run(runCtx, "brew", "services", "list")
	if err != nil {
		return "", false, fmt.Errorf("brew services list failed: %w", err)
	}

	lines := strings.Split(string(out), "\n")
	for _, candidate := range s.candidates {
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) == 0 || fields[0] != candidate {
				continue
			}
			// Anything but "started" (stopped, none, error) counts as dead.
			return candidate, strings.Contains(line, "started"), nil
		}
	}
	return "", false, nil
}

// IsRunning reports whether a sunshine process exists right now.
func (s *Service) IsRunning(ctx context.Context) bool {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.run(runCtx, "pgrep", "-x", "sunshine")
	return err == nil
}

// EnsureRunning starts Sunshine when no process exists. It returns a
// human-readable description of what happened; errors are best-effort
// signals, the caller decides whether they matter.
func (s *Service) EnsureRunning(ctx context.Context) (string, error) {
	if s.IsRunning(ctx) {
		return "sunshine already running", nil
	}

	if name, _, err := s.Detect(ctx); err == nil && name != "" {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := s.run(runCtx, "brew", "services", "start", name)
		cancel()
		if err == nil {
			return fmt.Sprintf("started via brew services (%s)", name), nil
		}
	}

	// Fall back to kicking the launchd job directly.
	uid, err := s.uid(ctx)
	if err == nil {
		for _, target := range s.launchTargets(uid) {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, err := s.run(runCtx, "launchctl", "kickstart", target)
			cancel()
			if err == nil {
				return fmt.Sprintf("started via launchctl (%s)", target), nil
			}
		}
	}

	return "", errors.New("could not start sunshine")
}

// Restart restarts Sunshine, trying increasingly blunt methods: brew
// services restart, brew stop+start, launchctl kickstart -k, launchctl
// stop/start, and finally pkill (launchd relaunches a KeepAlive job). The
// returned string names the method that worked.
func (s *Service) Restart(ctx context.Context) (string, error) {
	name, _, detectErr := s.Detect(ctx)

	if detectErr == nil && name != "" {
		// brew services restart can legitimately take a while.
		runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		_, err := s.run(runCtx, "brew", "services", "restart", name)
		cancel()
		if err == nil {
			return fmt.Sprintf("restarted via brew services (%s)", name), nil
		}

		runCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		_, _ = s.run(runCtx, "brew", "services", "stop", name)
		cancel()
		runCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		_, err = s.run(runCtx, "brew", "services", "start", name)
		cancel()
		if err == nil {
			return fmt.Sprintf("force restarted via brew services (%s)", name), nil
		}
	}

	uid, uidErr := s.uid(ctx)
	if uidErr == nil {
		for _, target := range s.launchTargets(uid) {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, err := s.run(runCtx, "launchctl", "kickstart", "-k", target)
			cancel()
			if err == nil {
				return fmt.Sprintf("restarted via launchctl kickstart (%s)", target), nil
			}
		}
		for _, target := range s.launchTargets(uid) {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, _ = s.run(runCtx, "launchctl", "stop", target)
			cancel()
			runCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
			_, err := s.run(runCtx, "launchctl", "start", target)
			cancel()
			if err == nil {
				return fmt.Sprintf("restarted via launchctl stop/start (%s)", target), nil
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := s.run(runCtx, "pkill", "-x", "sunshine")
	cancel()
	if err == nil {
		return "force killed (launchd should relaunch it)", nil
	}

	return "", ErrRestartFailed
}

func (s *Service) uid(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := s.run(runCtx, "id", "-u")
	if err != nil {
		return "", fmt.Errorf("id -u failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// launchTargets returns the launchd service targets for each candidate,
// e.g. gui/501/homebrew.mxcl.sunshine-beta.
func (s *Service) launchTargets(uid string) []string {
	targets := make([]string, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		targets = append(targets, fmt.Sprintf("gui/%s/homebrew.mxcl.%s", uid, candidate))
	}
	return targets
}
