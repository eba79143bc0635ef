package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bundlint/internal/bundle"
	"github.com/hupe1980/bundlint/internal/config"
	"github.com/hupe1980/bundlint/internal/lint"
	"github.com/hupe1980/bundlint/internal/logging"
	"github.com/hupe1980/bundlint/internal/notify"
	"github.com/hupe1980/bundlint/internal/pipeline"
	"github.com/hupe1980/bundlint/internal/watch"
)

type buildOptions struct {
	dir     string
	env     string
	tag     string
	bundler string

	watchMode bool
	notify    bool
	serve     bool
	debug     bool
	verbose   bool

	settle    time.Duration
	stability time.Duration
}

func newBuildCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Lint the source tree, then bundle it",
		Long: `Build runs every configured linter over the source tree (script,
markup, style, JSON, and YAML files) and, only when all of them pass,
invokes the bundler. Findings, bundle statistics, and annotated source
snippets are written to stderr.

With --watch, bundlint keeps monitoring the tree and reruns the sequence
whenever files change. Rapid change bursts are coalesced: a rerun is
scheduled once changes have settled, and changes arriving during a run
trigger exactly one follow-up run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", ".", "working directory of the build")
	f.StringVar(&opts.env, "env", bundle.EnvDevelopment, "target environment: development or production")
	f.StringVar(&opts.tag, "tag", "", "optional build tag embedded in the bundler config")
	f.StringVar(&opts.bundler, "bundler", "", "bundler executable (overrides config)")
	f.BoolVarP(&opts.watchMode, "watch", "w", false, "watch the tree and rerun on changes")
	f.BoolVar(&opts.notify, "notify", false, "ring the terminal bell when a run finishes")
	f.BoolVar(&opts.serve, "serve", false, "start the HTTP preview server (not available in this build)")
	f.BoolVar(&opts.debug, "debug", false, "shorthand for --log-level debug")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "more detailed progress output")
	f.DurationVar(&opts.settle, "settle", watch.DefaultSettle, "quiet period after the last change before a rerun")
	f.DurationVar(&opts.stability, "stability", watch.StabilityQuiet, "how long a written file must stay unchanged before it counts as a change")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, opts *buildOptions) error {
	// Environment is validated before any pass runs.
	if err := bundle.ValidateEnvironment(opts.env); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	// --debug and --verbose are shorthands over the log-level config.
	switch {
	case opts.debug:
		if cfg.LogLevel != config.LogLevelDebug {
			cfg.LogLevel = config.LogLevelDebug
			logger = logging.Setup(cfg)
		}
	case opts.verbose:
		if cfg.Quiet || cfg.LogLevel == config.LogLevelWarn || cfg.LogLevel == config.LogLevelError {
			cfg.Quiet = false
			cfg.LogLevel = config.LogLevelInfo
			logger = logging.Setup(cfg)
		}
	}

	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("resolving --dir: %w", err)}
	}

	if opts.serve {
		logger.Warn("--serve is declared but not available in this build; ignoring")
	}

	rules, err := lint.LoadRules(dir)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	bundlerCommand := cfg.BundlerCommand
	if opts.bundler != "" {
		bundlerCommand = opts.bundler
	}

	seq := pipeline.NewDefault(
		pipeline.Options{
			Dir:    dir,
			Err:    cmd.ErrOrStderr(),
			Color:  !cfg.NoColor,
			Logger: logger,
		},
		bundle.Options{
			Command:     bundlerCommand,
			Environment: opts.env,
			Tag:         opts.tag,
		},
		cfg.Linters,
		rules,
	)

	// Advisory only: an old or unprobeable bundler is worth a warning but
	// must not stop the build.
	if verErr := bundle.New(bundle.Options{Dir: dir, Command: bundlerCommand, Logger: logger}).CheckVersion(ctx); verErr != nil {
		logger.Warn("bundler version check", "error", verErr.Error())
	}

	bell := notify.NewBell(cmd.ErrOrStderr(), opts.notify)
	renderer := seq.Renderer()

	runOnce := func(runCtx context.Context, changed []string, first bool) bool {
		if !first && len(changed) > 0 {
			renderer.ChangedFiles(changed)
		}

		ok := seq.Run(runCtx)
		bell.Ring()

		return ok
	}

	if !opts.watchMode {
		if !runOnce(ctx, nil, true) {
			return &ExitError{Code: 1, Err: fmt.Errorf("build failed")}
		}

		return nil
	}

	return watch.Run(ctx, watch.RunOptions{
		Dir:    dir,
		Settle: opts.settle,
		Quiet:  opts.stability,
		OnIdle: renderer.IdleBanner,
		Logger: logger,
		Out:    cmd.ErrOrStderr(),
	}, runOnce)
}
