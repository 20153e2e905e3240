package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"storyscroll/internal/discovery"
	"storyscroll/internal/domain"
	"storyscroll/internal/eventbus"
)

// DefaultDelay batches rapid saves into one reload
const DefaultDelay = 300 * time.Millisecond

// LoadFunc loads the story at path
type LoadFunc func(ctx context.Context, path string) (domain.Story, error)

// StoryWatcher reloads a story when its source files change on disk
type StoryWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	file    string // non-empty when the story is a single file
	delay   time.Duration
	load    LoadFunc
	bus     eventbus.EventBus
	log     *zap.Logger

	mu       sync.Mutex
	onReload func(domain.Story)
	reloads  int
}

// New creates a watcher for the story at path. Run starts it.
func New(path string, delay time.Duration, bus eventbus.EventBus, log *zap.Logger) (*StoryWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve story path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat story: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &StoryWatcher{
		watcher: fw,
		path:    abs,
		delay:   delay,
		load:    discovery.LoadStory,
		bus:     bus,
		log:     log,
	}

	// editors often replace files, so single-file stories watch their directory
	if info.IsDir() {
		err = w.addTree(abs)
	} else {
		w.file = filepath.Base(abs)
		err = fw.Add(filepath.Dir(abs))
	}
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	return w, nil
}

// SetLoader replaces the story loader
func (w *StoryWatcher) SetLoader(load LoadFunc) {
	w.load = load
}

// OnReload registers fn to receive each successfully reloaded story
func (w *StoryWatcher) OnReload(fn func(domain.Story)) {
	w.mu.Lock()
	w.onReload = fn
	w.mu.Unlock()
}

// Reloads reports how many reloads have completed
func (w *StoryWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *StoryWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run blocks until ctx is done, reloading after changes settle
func (w *StoryWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("story source changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.file == "" {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			timer.Reset(w.delay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *StoryWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if w.file != "" {
		return name == w.file
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	// directories have no extension and may carry new sections
	return ext == ".md" || ext == ".toml" || ext == ""
}

func (w *StoryWatcher) reload(ctx context.Context) {
	story, err := w.load(ctx, w.path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.log.Warn("story reload failed", zap.String("path", w.path), zap.Error(err))
		if w.bus != nil {
			w.bus.Publish(eventbus.ErrorEvent{Message: "Failed to reload story", Err: err})
		}
		return
	}

	w.mu.Lock()
	w.reloads++
	fn := w.onReload
	w.mu.Unlock()

	w.log.Info("story reloaded", zap.String("path", w.path), zap.Int("sections", len(story.Sections)))
	if w.bus != nil {
		w.bus.Publish(eventbus.StoryReloadedEvent{Story: story})
	}
	if fn != nil {
		fn(story)
	}
}
