// Package watch re-runs the sync whenever Apple Books writes new
// annotation data.
//
// Books.app rewrites its sqlite files (and their WAL sidecars) as the
// user highlights, so a directory watch on the annotation container is
// enough to notice new activity. Events are debounced: a highlight
// session produces bursts of writes, and one sync per quiet period is
// plenty.
package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yukimura/marginalia/internal/syncer"
)

// Runner is the sync entry point the watcher drives. *syncer.Syncer is
// the production implementation.
type Runner interface {
	Run(ctx context.Context) (syncer.Result, error)
}

// Config holds watcher tuning.
type Config struct {
	// Debounce is how long the annotation directory must stay quiet
	// before a sync fires.
	Debounce time.Duration

	// Poll is how often the pending-change flag is checked.
	Poll time.Duration

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 5 * time.Second,
		Poll:     500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// NewLogWriter returns the destination for watch-mode logs: a rotating
// file when path is set, stderr otherwise.
func NewLogWriter(path string) io.Writer {
	if path == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// Watcher watches the annotation directory and drives a Runner.
type Watcher struct {
	dir    string
	runner Runner
	config *Config

	watcher *fsnotify.Watcher

	mu          sync.Mutex
	lastChange  time.Time
	pendingSync bool

	wg   sync.WaitGroup
	done chan struct{}
}

// New creates a watcher over dir. Use Start to begin watching.
func New(dir string, runner Runner, config *Config) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		dir:     dir,
		runner:  runner,
		config:  config,
		watcher: fw,
		done:    make(chan struct{}),
	}, nil
}

// Start performs an initial sync, then watches for changes until ctx is
// cancelled. Sync failures are logged, not fatal: the watcher keeps
// running so a later change can succeed.
func (w *Watcher) Start(ctx context.Context) error {
	w.config.Logger.Printf("Starting watcher on %s", w.dir)

	w.runSync(ctx)

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(2)
	go w.consumeEvents()
	go w.syncLoop(ctx)

	select {
	case <-ctx.Done():
		return w.Stop()
	case <-w.done:
		return nil
	}
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)

	err := w.watcher.Close()
	w.wg.Wait()

	w.config.Logger.Printf("Watcher stopped")
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// consumeEvents marks the change flag on relevant filesystem events.
func (w *Watcher) consumeEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDatabaseFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			w.lastChange = time.Now()
			w.pendingSync = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.config.Logger.Printf("Watch error: %v", err)
		}
	}
}

// syncLoop fires a sync once the directory has been quiet for the
// debounce interval.
func (w *Watcher) syncLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			due := w.pendingSync && time.Since(w.lastChange) >= w.config.Debounce
			if due {
				w.pendingSync = false
			}
			w.mu.Unlock()

			if due {
				w.config.Logger.Printf("Annotation change detected")
				w.runSync(ctx)
			}
		}
	}
}

func (w *Watcher) runSync(ctx context.Context) {
	res, err := w.runner.Run(ctx)
	if err != nil {
		w.config.Logger.Printf("Sync failed: %v", err)
		return
	}
	w.config.Logger.Printf("Sync complete: %d synced, %d failed, %d skipped",
		res.Synced, res.Failed, res.Skipped)
}

// isDatabaseFile reports whether a path looks like annotation database
// activity, including WAL and SHM sidecars.
func isDatabaseFile(path string) bool {
	return strings.Contains(path, ".sqlite")
}
