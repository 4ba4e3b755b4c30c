// Package osdeps probes the operating system for packages that buildspecs
// declare as OS-level dependencies.
package osdeps

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// probeTimeout bounds a single package-manager query.
const probeTimeout = 5 * time.Second

// Prober answers whether an OS package is present on this system.
type Prober interface {
	// HasPackage reports whether the named package is installed. Probe
	// failures (no package manager, query timeout) count as not installed.
	HasPackage(ctx context.Context, name string) bool
}

// packageManager describes one query style for an installed package.
type packageManager struct {
	command string
	args    []string
}

// managers lists the package managers consulted in order. The first one
// whose binary exists decides the answer for its query; later ones are
// still tried when the earlier ones report the package missing.
var managers = []packageManager{
	{command: "dpkg", args: []string{"-s"}},
	{command: "rpm", args: []string{"-q"}},
	{command: "pacman", args: []string{"-Qi"}},
}

// SystemProber queries the local package managers and, failing that, looks
// for the name as an executable on PATH.
type SystemProber struct {
	Logger *slog.Logger
}

// NewSystemProber returns a prober that logs probe outcomes to logger.
func NewSystemProber(logger *slog.Logger) *SystemProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemProber{Logger: logger}
}

// HasPackage consults each known package manager and finally PATH. Any
// failure to determine an answer is treated as "not installed".
func (p *SystemProber) HasPackage(ctx context.Context, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for _, mgr := range managers {
		if _, err := exec.LookPath(mgr.command); err != nil {
			continue
		}
		args := append(append([]string(nil), mgr.args...), name)
		if err := exec.CommandContext(ctx, mgr.command, args...).Run(); err == nil {
			p.Logger.Debug("OS dependency found", "package", name, "via", mgr.command)
			return true
		}
		if ctx.Err() != nil {
			p.Logger.Warn("OS dependency probe timed out", "package", name)
			return false
		}
	}

	// Some OS dependencies name a command rather than a package.
	if _, err := exec.LookPath(name); err == nil {
		p.Logger.Debug("OS dependency found on PATH", "package", name)
		return true
	}
	p.Logger.Debug("OS dependency not found", "package", name)
	return false
}

// StaticProber answers from a fixed set, for tests and offline use.
type StaticProber struct {
	Installed map[string]bool
}

func (p *StaticProber) HasPackage(_ context.Context, name string) bool {
	return p.Installed[name]
}
