package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source is the filesystem-watch collaborator: a ready signal once the
// initial scan finishes, change events (one path each) afterwards, and an
// error channel.
type Source interface {
	Ready() <-chan struct{}
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// Default stability filter timings: a written file is only reported once
// its size and mtime have been unchanged for StabilityQuiet, checked every
// StabilityPoll. This avoids reacting to partially-written files.
const (
	StabilityQuiet = 1500 * time.Millisecond
	StabilityPoll  = 100 * time.Millisecond
)

// FSSourceOptions configures an FSSource.
type FSSourceOptions struct {
	// Quiet is the stability quiet period for written files.
	Quiet time.Duration

	// Poll is the stability check interval.
	Poll time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// FSSource watches a directory tree with fsnotify and applies the write
// stability filter before reporting change events.
type FSSource struct {
	watcher *fsnotify.Watcher
	opts    FSSourceOptions

	ready  chan struct{}
	events chan string
	errs   chan error
	done   chan struct{}
}

// pendingWrite tracks a file whose writes have not settled yet.
type pendingWrite struct {
	size  int64
	mtime time.Time
	since time.Time
}

// NewFSSource starts watching dir recursively. Dotted directories are
// skipped and unreadable entries are ignored. The ready signal fires after
// the initial walk; only genuine changes after that point are reported.
func NewFSSource(dir string, opts FSSourceOptions) (*FSSource, error) {
	if opts.Quiet <= 0 {
		opts.Quiet = StabilityQuiet
	}

	if opts.Poll <= 0 {
		opts.Poll = StabilityPoll
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	s := &FSSource{
		watcher: watcher,
		opts:    opts,
		ready:   make(chan struct{}),
		events:  make(chan string),
		errs:    make(chan error),
		done:    make(chan struct{}),
	}

	go s.loop(dir)

	return s, nil
}

// Ready returns the channel closed once the initial scan completes.
func (s *FSSource) Ready() <-chan struct{} { return s.ready }

// Events returns the channel of stable change paths.
func (s *FSSource) Events() <-chan string { return s.events }

// Errors returns the channel of watcher errors.
func (s *FSSource) Errors() <-chan error { return s.errs }

// Close releases the underlying filesystem watch.
func (s *FSSource) Close() error {
	close(s.done)

	return s.watcher.Close()
}

// loop registers the tree, signals readiness, and forwards filtered
// events. Writes go through the stability tracker; removes and renames
// are forwarded immediately.
func (s *FSSource) loop(dir string) {
	if err := s.addRecursive(dir); err != nil {
		select {
		case s.errs <- fmt.Errorf("watching %s: %w", dir, err):
		case <-s.done:
		}

		return
	}

	close(s.ready)

	pending := make(map[string]pendingWrite)

	ticker := time.NewTicker(s.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				close(s.events)
				return
			}

			if !relevant(event) {
				continue
			}

			// A new directory needs to be watched too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = s.addRecursive(event.Name)
					continue
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(pending, event.Name)
				s.emit(event.Name)

				continue
			}

			s.track(pending, event.Name)

		case <-ticker.C:
			s.settle(pending)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				close(s.errs)
				return
			}

			select {
			case s.errs <- err:
			case <-s.done:
				return
			}
		}
	}
}

// track records or refreshes the stability entry for a written file.
func (s *FSSource) track(pending map[string]pendingWrite, path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Already gone again; treat as a change.
		delete(pending, path)
		s.emit(path)

		return
	}

	now := time.Now()

	entry, ok := pending[path]
	if !ok || entry.size != info.Size() || !entry.mtime.Equal(info.ModTime()) {
		pending[path] = pendingWrite{size: info.Size(), mtime: info.ModTime(), since: now}
	}
}

// settle emits paths whose size and mtime stayed unchanged for the quiet
// period.
func (s *FSSource) settle(pending map[string]pendingWrite) {
	now := time.Now()

	for path, entry := range pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(pending, path)
			s.emit(path)

			continue
		}

		if info.Size() != entry.size || !info.ModTime().Equal(entry.mtime) {
			pending[path] = pendingWrite{size: info.Size(), mtime: info.ModTime(), since: now}
			continue
		}

		if now.Sub(entry.since) >= s.opts.Quiet {
			delete(pending, path)
			s.emit(path)
		}
	}
}

// emit forwards a stable change path unless the source is closing.
func (s *FSSource) emit(path string) {
	select {
	case s.events <- path:
	case <-s.done:
	}
}

// addRecursive walks root and adds all non-hidden directories to the
// watcher. Permission errors on individual entries are skipped.
func (s *FSSource) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}

			return err
		}

		if !d.IsDir() {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		if addErr := s.watcher.Add(path); addErr != nil {
			if os.IsPermission(addErr) {
				return nil
			}

			return addErr
		}

		return nil
	})
}

// relevant filters out events on hidden and editor temporary files.
func relevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
