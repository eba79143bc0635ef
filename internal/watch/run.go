package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// RunOptions configures the top-level watch loop.
type RunOptions struct {
	// Dir is the source tree watched recursively.
	Dir string

	// Settle is the debounce delay after the last change event.
	Settle time.Duration

	// Quiet and Poll tune the write stability filter.
	Quiet time.Duration
	Poll  time.Duration

	// OnIdle is called whenever the loop settles back into idle.
	OnIdle func()

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// Run wires an FSSource to a Controller and blocks until the context is
// cancelled or a SIGINT/SIGTERM signal arrives. A run in flight at
// shutdown still completes before the process exits the loop.
func Run(ctx context.Context, opts RunOptions, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	source, err := NewFSSource(opts.Dir, FSSourceOptions{
		Quiet:  opts.Quiet,
		Poll:   opts.Poll,
		Logger: opts.Logger,
	})
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			opts.Logger.Warn("closing watcher", slog.String("error", closeErr.Error()))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (settle=%s)\n", opts.Dir, settleOrDefault(opts.Settle))

	controller := NewController(source, runFn, Options{
		Settle: opts.Settle,
		OnIdle: opts.OnIdle,
		Logger: opts.Logger,
	})

	err = controller.Run(sigCtx)

	if sigCtx.Err() != nil {
		fmt.Fprintln(opts.Out, "\nshutting down watcher")
	}

	return err
}

// settleOrDefault resolves the effective settle delay for display.
func settleOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultSettle
	}

	return d
}
