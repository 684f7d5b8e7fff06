package rules

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// WatcherConfig configures the sheet file watcher.
type WatcherConfig struct {
	// Paths are the rules sheets to watch.
	Paths []string

	// DebounceDelay is how long to wait for more changes before reloading.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// WatchOperation indicates the type of file operation.
type WatchOperation string

const (
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// WatchEvent represents a sheet change event. Exactly one of
// Information and DMS is set on a successful reload, depending on
// which sheet kind the file parses as.
type WatchEvent struct {
	// Path is the changed sheet file.
	Path string

	// Operation is the type of change.
	Operation WatchOperation

	// Information is the reloaded conceptual sheet, if any.
	Information *InformationRules

	// DMS is the reloaded physical sheet, if any.
	DMS *DMSRules

	// Error if reloading failed.
	Error error
}

// Watcher watches rules sheets and emits reloaded models.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing.
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Content hashes for change detection.
	hashMu sync.RWMutex
	hashes map[string]string

	events chan WatchEvent
}

// NewWatcher creates a new sheet watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching the configured sheets. Directories are
// watched rather than the files themselves so editors that replace
// files on save are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for _, path := range w.config.Paths {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Sheet watcher started",
		"paths", len(w.config.Paths),
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop closes the underlying filesystem watcher. The events channel
// closes once the processing goroutine has drained; it owns the
// channel, so no send can race the close.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watched(path string) bool {
	for _, p := range w.config.Paths {
		if filepath.Clean(p) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

// processEvents handles fsnotify events with debouncing. It is the
// sole sender on w.events and closes it on exit.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.watched(event.Name) {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = event.Op
			w.pendingMu.Unlock()
			w.logger.Debug("Sheet change detected",
				"path", event.Name,
				"op", event.Op.String())

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// flushPending reloads accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event := WatchEvent{Path: path}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = OpDelete
			w.hashMu.Lock()
			delete(w.hashes, path)
			w.hashMu.Unlock()
			w.sendEvent(event)
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Operation = OpDelete
			w.sendEvent(event)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			event.Error = err
			w.sendEvent(event)
			continue
		}

		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		w.hashMu.RLock()
		old, had := w.hashes[path]
		w.hashMu.RUnlock()
		if had && old == hash {
			continue
		}
		w.hashMu.Lock()
		w.hashes[path] = hash
		w.hashMu.Unlock()

		event.Operation = OpModify
		event.Information, event.DMS, event.Error = parseSheet(data)
		w.sendEvent(event)
	}
}

// parseSheet decodes either sheet kind. A document whose metadata
// carries a space is physical; otherwise it is conceptual.
func parseSheet(data []byte) (*InformationRules, *DMSRules, error) {
	var probe struct {
		Metadata struct {
			Space string `yaml:"space"`
		} `yaml:"metadata"`
	}
	if err := yaml.Unmarshal(data, &probe); err == nil && probe.Metadata.Space != "" {
		dms, err := ParseDMSRules(data)
		return nil, dms, err
	}
	info, err := ParseInformationRules(data)
	return info, nil, err
}

func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path)
	}
}
