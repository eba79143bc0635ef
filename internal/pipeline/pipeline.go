// Package pipeline sequences the lint and bundle passes of one build.
// All five lint categories always run, even when an early one fails; the
// bundle pass only runs when linting was clean. The human-readable report
// goes to the error stream and is not part of the pass/fail contract.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/bundlint/internal/bundle"
	"github.com/hupe1980/bundlint/internal/lint"
	"github.com/hupe1980/bundlint/internal/report"
)

// BundleRunner is the bundler collaborator.
type BundleRunner interface {
	Run(ctx context.Context) (*bundle.Result, error)
}

// DiscoverFunc locates the files of one category below dir.
type DiscoverFunc func(dir string, exts []string) ([]string, error)

// Options configures a Sequencer.
type Options struct {
	// Dir is the working directory of the build, threaded explicitly to
	// every collaborator instead of mutating the process working
	// directory.
	Dir string

	// Err receives the human-readable report.
	Err io.Writer

	// Color enables ANSI colors in the report.
	Color bool

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Option customises a Sequencer.
type Option func(*Sequencer)

// WithLinter overrides the linter for a category. Used to inject fakes in
// tests and alternative tools in config.
func WithLinter(category string, l lint.Linter) Option {
	return func(s *Sequencer) {
		s.linters[category] = l
	}
}

// WithBundler overrides the bundler collaborator.
func WithBundler(b BundleRunner) Option {
	return func(s *Sequencer) {
		s.bundler = b
	}
}

// WithDiscovery overrides file discovery.
func WithDiscovery(fn DiscoverFunc) Option {
	return func(s *Sequencer) {
		s.discover = fn
	}
}

// Sequencer runs the lint categories in order and, when all are clean,
// the bundler.
type Sequencer struct {
	opts       Options
	categories []lint.Category
	linters    map[string]lint.Linter
	bundler    BundleRunner
	discover   DiscoverFunc
	renderer   *report.Renderer

	lastAssets []string
}

// New creates a Sequencer. Linters and the bundler default to nil and
// must be provided via options; NewDefault wires the real tools.
func New(opts Options, optFns ...Option) *Sequencer {
	if opts.Dir == "" {
		opts.Dir = "."
	}

	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Sequencer{
		opts:       opts,
		categories: lint.Categories(),
		linters:    make(map[string]lint.Linter),
		discover:   lint.Discover,
		renderer:   report.NewRenderer(opts.Err, opts.Color),
	}

	for _, fn := range optFns {
		fn(s)
	}

	return s
}

// NewDefault creates a Sequencer wired to the real external linters and
// bundler. linterCommands maps category names to executable overrides;
// rules carries per-category extra args and disabled rule ids.
func NewDefault(opts Options, bundlerOpts bundle.Options, linterCommands map[string]string, rules lint.Rules, optFns ...Option) *Sequencer {
	s := New(opts, optFns...)

	for _, cat := range s.categories {
		if _, ok := s.linters[cat.Name]; ok {
			continue
		}

		catRules := rules[cat.Name]

		s.linters[cat.Name] = lint.NewExecLinter(cat,
			lint.WithCommand(linterCommands[cat.Name]),
			lint.WithExtraArgs(catRules.Args),
			lint.WithDisabledRules(catRules.Disable),
			lint.WithLogger(opts.Logger),
		)
	}

	if s.bundler == nil {
		bundlerOpts.Dir = opts.Dir
		bundlerOpts.Logger = opts.Logger
		s.bundler = bundle.New(bundlerOpts)
	}

	return s
}

// Run executes one full pass sequence and returns overall success: true
// only when every lint category is clean and the bundler reports zero
// errors and zero warnings.
func (s *Sequencer) Run(ctx context.Context) bool {
	rep := lint.NewReport()

	// Every category always runs; the aggregate is a plain logical AND
	// with no short-circuit between categories.
	pass := true

	for i, cat := range s.categories {
		s.renderer.Progress(i+1, len(s.categories), cat.Name)

		ok := s.runCategory(ctx, cat, rep)
		pass = pass && ok
	}

	s.renderer.Findings(rep)

	if !pass {
		s.renderer.Result(false)
		return false
	}

	ok := s.runBundle(ctx)
	s.renderer.Result(ok)

	return ok
}

// runCategory lints one category. A tool failure counts as a failed
// category but never stops the remaining categories.
func (s *Sequencer) runCategory(ctx context.Context, cat lint.Category, rep *lint.Report) bool {
	linter, ok := s.linters[cat.Name]
	if !ok {
		s.opts.Logger.Warn("no linter wired for category", slog.String("category", cat.Name))
		return true
	}

	files, err := s.discover(s.opts.Dir, cat.Extensions)
	if err != nil {
		s.opts.Logger.Error("discovering files",
			slog.String("category", cat.Name),
			slog.String("error", err.Error()),
		)

		return false
	}

	clean, err := linter.Lint(ctx, s.opts.Dir, files, rep)
	if err != nil {
		s.opts.Logger.Error("lint category failed",
			slog.String("category", cat.Name),
			slog.String("error", err.Error()),
		)

		return false
	}

	return clean
}

// runBundle invokes the bundler exactly once and interprets its result.
// Unparseable stats surface the raw output and resolve as failure.
func (s *Sequencer) runBundle(ctx context.Context) bool {
	if s.bundler == nil {
		s.opts.Logger.Error("no bundler wired")
		return false
	}

	res, err := s.bundler.Run(ctx)
	if err != nil {
		s.opts.Logger.Error("bundle pass failed", slog.String("error", err.Error()))
		return false
	}

	if res.Stats == nil {
		s.renderer.RawBundlerOutput(res.Raw)
		return false
	}

	s.renderer.BundleStats(res.Stats)

	prev := s.lastAssets
	s.lastAssets = res.Stats.AssetNames()

	if prev != nil {
		if unified, diffErr := report.AssetDiff(prev, s.lastAssets); diffErr == nil {
			s.renderer.WriteAssetDiff(unified)
		}
	}

	return res.Clean()
}

// Renderer exposes the report renderer so callers can reuse it for
// watch-mode banners.
func (s *Sequencer) Renderer() *report.Renderer {
	return s.renderer
}
