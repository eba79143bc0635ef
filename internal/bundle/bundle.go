// Package bundle shells out to an external bundler and turns its stdout
// into a structured stats report. bundlint generates a transient
// configuration file for each invocation and removes it afterwards; no
// bundling logic lives here.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinBundlerVersion is the oldest bundler release known to support the
// --json stats output bundlint depends on.
const MinBundlerVersion = ">= 5.0.0"

// Options configures a Bundler.
type Options struct {
	// Dir is the working directory the bundler runs in.
	Dir string

	// Command is the bundler executable.
	Command string

	// Environment is the target environment written into the generated
	// configuration (development or production).
	Environment string

	// Tag is an optional build tag embedded in the configuration.
	Tag string

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Result is the outcome of one bundler invocation. When the stats output
// could not be parsed, Stats is nil and Raw carries the bundler's verbatim
// stdout so callers can surface it.
type Result struct {
	Stats *Stats
	Raw   []byte
}

// Clean reports whether the invocation produced a parseable stats document
// with zero errors and zero warnings.
func (r *Result) Clean() bool {
	return r.Stats != nil && r.Stats.Clean()
}

// Bundler invokes an external bundler process.
type Bundler struct {
	opts Options
}

// New creates a Bundler. Missing options fall back to defaults.
func New(opts Options) *Bundler {
	if opts.Command == "" {
		opts.Command = "webpack"
	}

	if opts.Dir == "" {
		opts.Dir = "."
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Bundler{opts: opts}
}

// generatedConfig is the transient configuration document handed to the
// bundler via --config.
type generatedConfig struct {
	Mode  string `json:"mode"`
	Tag   string `json:"tag,omitempty"`
	Stats string `json:"stats"`
}

// Run generates the transient configuration, invokes the bundler, removes
// the configuration, and parses the stats document from stdout.
//
// The bundler's exit code is observed but not authoritative: the parsed
// stats decide success. Unparseable stdout yields a Result with Raw set
// and a nil Stats rather than an error, so watch mode can keep cycling.
func (b *Bundler) Run(ctx context.Context) (*Result, error) {
	cfgPath, err := b.writeConfig()
	if err != nil {
		return nil, err
	}

	defer func() {
		if rmErr := os.Remove(cfgPath); rmErr != nil {
			b.opts.Logger.Warn("removing bundler config", slog.String("error", rmErr.Error()))
		}
	}()

	path, err := exec.LookPath(b.opts.Command)
	if err != nil {
		return nil, fmt.Errorf("bundler %q not found on PATH: %w", b.opts.Command, err)
	}

	cmd := exec.CommandContext(ctx, path, "--config", cfgPath, "--json") //nolint:gosec
	cmd.Dir = b.opts.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("running %s: %w", b.opts.Command, runErr)
	}

	if runErr != nil {
		b.opts.Logger.Debug("bundler exited non-zero",
			slog.Int("code", exitErr.ExitCode()),
			slog.String("stderr", firstLine(stderr.String())),
		)
	}

	stats, parseErr := ParseStats(stdout.Bytes())
	if parseErr != nil {
		b.opts.Logger.Debug("bundler stats unparseable", slog.String("error", parseErr.Error()))

		return &Result{Raw: stdout.Bytes()}, nil
	}

	return &Result{Stats: stats, Raw: stdout.Bytes()}, nil
}

// writeConfig writes the transient configuration file into the working
// directory and returns its path.
func (b *Bundler) writeConfig() (string, error) {
	cfg := generatedConfig{
		Mode:  b.opts.Environment,
		Tag:   b.opts.Tag,
		Stats: "verbose",
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling bundler config: %w", err)
	}

	f, err := os.CreateTemp(b.opts.Dir, ".bundlint-config-*.json")
	if err != nil {
		return "", fmt.Errorf("creating bundler config: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("writing bundler config: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("closing bundler config: %w", err)
	}

	return f.Name(), nil
}

// versionPattern extracts the first semver-looking token from --version
// output.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.-]+)?`)

// CheckVersion probes the bundler's version and verifies it against
// MinBundlerVersion. The error is advisory; callers typically log it as a
// warning instead of aborting.
func (b *Bundler) CheckVersion(ctx context.Context) error {
	path, err := exec.LookPath(b.opts.Command)
	if err != nil {
		return fmt.Errorf("bundler %q not found on PATH: %w", b.opts.Command, err)
	}

	out, err := exec.CommandContext(ctx, path, "--version").Output() //nolint:gosec
	if err != nil {
		return fmt.Errorf("probing %s version: %w", b.opts.Command, err)
	}

	raw := versionPattern.FindString(string(out))
	if raw == "" {
		return fmt.Errorf("unrecognised %s version output %q", b.opts.Command, firstLine(string(out)))
	}

	ver, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("parsing %s version %q: %w", b.opts.Command, raw, err)
	}

	constraint, err := semver.NewConstraint(MinBundlerVersion)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}

	if !constraint.Check(ver) {
		return fmt.Errorf("%s %s does not satisfy %s", b.opts.Command, ver, MinBundlerVersion)
	}

	return nil
}

// firstLine returns the first non-empty line of s, or a placeholder.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return "no output"
}
