package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecLinter runs an external linter executable over a file list and parses
// its stdout according to the category's output dialect.
type ExecLinter struct {
	category Category
	command  string
	args     []string
	disabled map[string]struct{}
	logger   *slog.Logger
}

// ExecOption customises an ExecLinter.
type ExecOption func(*ExecLinter)

// WithCommand overrides the linter executable for this category.
func WithCommand(command string) ExecOption {
	return func(l *ExecLinter) {
		if command != "" {
			l.command = command
		}
	}
}

// WithExtraArgs appends additional arguments before the file list.
func WithExtraArgs(args []string) ExecOption {
	return func(l *ExecLinter) {
		l.args = append(l.args, args...)
	}
}

// WithDisabledRules drops findings whose rule id is in rules.
func WithDisabledRules(rules []string) ExecOption {
	return func(l *ExecLinter) {
		for _, r := range rules {
			l.disabled[r] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) ExecOption {
	return func(l *ExecLinter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewExecLinter creates a linter for the given category.
func NewExecLinter(category Category, optFns ...ExecOption) *ExecLinter {
	l := &ExecLinter{
		category: category,
		command:  category.Command,
		args:     append([]string(nil), category.Args...),
		disabled: make(map[string]struct{}),
		logger:   slog.Default(),
	}

	for _, fn := range optFns {
		fn(l)
	}

	return l
}

// Lint runs the linter over files relative to dir and appends findings to
// report. It returns true when no findings were produced. A missing or
// crashing tool is an error; a tool exiting non-zero because it found
// issues is not.
func (l *ExecLinter) Lint(ctx context.Context, dir string, files []string, report *Report) (bool, error) {
	if len(files) == 0 {
		return true, nil
	}

	path, err := exec.LookPath(l.command)
	if err != nil {
		return false, fmt.Errorf("linter %q not found on PATH: %w", l.command, err)
	}

	args := append(append([]string(nil), l.args...), files...)

	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return false, fmt.Errorf("running %s: %w", l.command, runErr)
	}

	findings, parseErr := Parse(l.category.Dialect, stdout.Bytes(), l.command)
	if parseErr != nil {
		if runErr != nil {
			// Non-zero exit and unparseable output: the tool itself broke.
			return false, fmt.Errorf("%s failed: %s", l.command, firstLine(stderr.String()))
		}

		return false, parseErr
	}

	if runErr != nil && len(findings) == 0 {
		// Non-zero exit without findings means a tool failure (bad config,
		// missing plugin), not a lint failure.
		return false, fmt.Errorf("%s failed: %s", l.command, firstLine(stderr.String()))
	}

	kept := 0

	for _, f := range findings {
		if _, off := l.disabled[f.Rule]; off && f.Rule != "" {
			continue
		}

		f.File = normalizePath(dir, f.File)
		report.Add(f)
		kept++

		l.loadSource(dir, f.File, report)
	}

	l.logger.Debug("lint category finished",
		slog.String("category", l.category.Name),
		slog.Int("files", len(files)),
		slog.Int("findings", kept),
	)

	return kept == 0, nil
}

// loadSource reads the file content into the report for snippet rendering.
// Already-loaded and unreadable files are skipped.
func (l *ExecLinter) loadSource(dir, file string, report *Report) {
	if _, ok := report.Sources[file]; ok {
		return
	}

	full := file
	if !filepath.IsAbs(full) {
		full = filepath.Join(dir, file)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return
	}

	report.AddSource(file, string(data))
}

// normalizePath rewrites absolute linter-reported paths relative to dir.
func normalizePath(dir, file string) string {
	if !filepath.IsAbs(file) {
		return filepath.Clean(file)
	}

	if rel, err := filepath.Rel(dir, file); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}

	return file
}

// firstLine returns the first non-empty line of s, or a placeholder.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return "no error output"
}
