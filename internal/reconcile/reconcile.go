// Package reconcile implements the single-pass pipeline that keeps
// Sunshine's output_name in step with the live display set: enumerate,
// match, compare, conditionally rewrite, conditionally restart. Each
// invocation is stateless; the scheduler's next tick is the retry.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/sunshine"
)

// Enumerator returns the current set of OS-reported displays.
type Enumerator func(ctx context.Context) ([]display.Record, error)

// ServiceController is the slice of service control a pass needs.
type ServiceController interface {
	EnsureRunning(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
}

// Config holds configuration for a reconciliation pass.
type Config struct {
	// ConfPath is the Sunshine config file to reconcile.
	ConfPath string
	// NoRestart suppresses the post-rewrite restart.
	NoRestart bool
	// EnsureRunning starts Sunshine (best-effort) before reconciling.
	EnsureRunning bool
	// Force rewrites and restarts even when the identifier is unchanged.
	Force bool
	// Logger defaults to a text handler on stderr.
	Logger *slog.Logger
}

// Reconciler runs reconciliation passes. Dependencies are injected so the
// external command surface and the config file can be faked under test.
type Reconciler struct {
	confPath      string
	noRestart     bool
	ensureRunning bool
	force         bool
	enumerate     Enumerator
	service       ServiceController
	logger        *slog.Logger
}

// Result summarizes one pass.
type Result struct {
	Display   display.Record
	Previous  string
	Changed   bool
	Restarted bool
}

// New creates a reconciler with the given configuration and dependencies.
func New(cfg Config, enumerate Enumerator, service ServiceController) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return &Reconciler{
		confPath:      cfg.ConfPath,
		noRestart:     cfg.NoRestart,
		ensureRunning: cfg.EnsureRunning,
		force:         cfg.Force,
		enumerate:     enumerate,
		service:       service,
		logger:        logger,
	}
}

// Run performs one reconciliation pass for the target display name.
// Restart failures are logged and swallowed (the config rewrite already
// succeeded); every other failure aborts the pass.
func (r *Reconciler) Run(ctx context.Context, target string) (Result, error) {
	if r.ensureRunning && r.service != nil {
		msg, err := r.service.EnsureRunning(ctx)
		if err != nil {
			r.logger.Warn("sunshine not running and could not be started", "error", err)
		} else if !strings.Contains(msg, "already") {
			r.logger.Info("sunshine started", "method", msg)
		}
	}

	records, err := r.enumerate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("display enumeration failed: %w", err)
	}

	rec, candidates, err := display.Match(target, records)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) > 1 {
		// Enumeration order is not guaranteed stable across reconnects, so
		// an ambiguous target can flap between displays.
		r.logger.Warn("ambiguous display match, using first in enumeration order",
			"target", target,
			"selected", rec.Name,
			"candidates", strings.Join(candidates, ", "))
	}

	current, err := sunshine.CurrentOutputName(r.confPath)
	if err != nil {
		return Result{}, err
	}

	if current == rec.ID && !r.force {
		r.logger.Info("display identifier unchanged, nothing to do",
			"display", rec.Name, "id", rec.ID)
		return Result{Display: rec, Previous: current}, nil
	}

	if err := sunshine.SetOutputName(r.confPath, rec.ID); err != nil {
		return Result{}, err
	}
	r.logger.Info("sunshine config updated",
		"display", rec.Name,
		"previous", current,
		"id", rec.ID,
		"conf", r.confPath)

	result := Result{Display: rec, Previous: current, Changed: true}

	if r.noRestart {
		r.logger.Info("restart suppressed, restart sunshine manually for the change to take effect")
		return result, nil
	}
	if r.service == nil {
		return result, nil
	}

	method, err := r.service.Restart(ctx)
	if err != nil {
		// Best-effort: the rewrite stands either way.
		r.logger.Warn("sunshine restart failed", "error", err)
		return result, nil
	}
	result.Restarted = true
	r.logger.Info("sunshine restarted", "method", method)
	return result, nil
}
