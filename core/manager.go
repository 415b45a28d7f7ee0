package core

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RuleVersion tracks a specific version of a loaded rule set
type RuleVersion struct {
	// Version identifier from the rule set metadata
	Version string

	// Content hash of the loaded file
	Hash string

	// Timestamp when this version became active
	Timestamp time.Time
}

// RuleManager owns the active rule set for a process. The initial load is
// fatal on a bad file; later reloads reject a bad file and keep the previous
// set active, so a broken edit never takes scanning down.
type RuleManager struct {
	mu      sync.RWMutex
	active  *RuleSet
	path    string
	history []RuleVersion

	logger *zap.Logger

	// watchMu guards watcher and done; the watch goroutine itself only ever
	// sees the watcher it was handed at start, so Close can clear the field
	// without racing the loop.
	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRuleManager loads the rule file at path and returns a manager holding
// it. An empty path selects the built-in rule table.
func NewRuleManager(path string, logger *zap.Logger) (*RuleManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &RuleManager{
		path:   path,
		logger: logger,
	}

	var rs *RuleSet
	if path == "" {
		rs = DefaultRuleSet()
	} else {
		loaded, err := LoadRuleSet(path)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}

	m.install(rs)
	return m, nil
}

// Active returns the currently active rule set
func (m *RuleManager) Active() *RuleSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// History returns the versions that have been active, oldest first
func (m *RuleManager) History() []RuleVersion {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RuleVersion(nil), m.history...)
}

// Reload re-reads the rule file and swaps it in atomically. Managers over
// the built-in table have nothing to reload.
func (m *RuleManager) Reload() error {
	if m.path == "" {
		return nil
	}

	rs, err := LoadRuleSet(m.path)
	if err != nil {
		m.logger.Warn("rule reload rejected, keeping previous rule set",
			zap.String("path", m.path),
			zap.Error(err),
		)
		return err
	}

	m.install(rs)
	m.logger.Info("rule set reloaded",
		zap.String("path", m.path),
		zap.String("version", rs.Metadata.Version),
	)
	return nil
}

func (m *RuleManager) install(rs *RuleSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = rs
	m.history = append(m.history, RuleVersion{
		Version:   rs.Metadata.Version,
		Hash:      rs.Metadata.Hash,
		Timestamp: time.Now(),
	})
}

// Watch starts watching the rule file and reloads it on change. Watching
// the containing directory rather than the file itself survives the
// rename-and-replace writes editors and config tooling perform.
func (m *RuleManager) Watch() error {
	if m.path == "" {
		return fmt.Errorf("no rule file to watch")
	}

	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if m.watcher != nil {
		return fmt.Errorf("already watching %s", m.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rule watcher: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	m.watcher = watcher
	m.done = done

	go m.watchLoop(watcher, done)

	m.logger.Info("watching rule file", zap.String("path", m.path))
	return nil
}

// watchLoop owns the watcher it was started with; Close never touches it,
// only closes done and the watcher's channels
func (m *RuleManager) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	target := filepath.Clean(m.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Reload failures keep the previous set; nothing more to do here.
			_ = m.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("rule watcher error", zap.Error(err))

		case <-done:
			return
		}
	}
}

// Close stops the watcher, if any. Safe to call concurrently with in-flight
// watch events and safe to call more than once.
func (m *RuleManager) Close() error {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if m.watcher == nil {
		return nil
	}

	close(m.done)
	err := m.watcher.Close()
	m.watcher = nil
	m.done = nil
	return err
}
