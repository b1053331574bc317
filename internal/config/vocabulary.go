package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"talentgate/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// DefaultSkillVocabulary returns the built-in skill vocabulary used for
// resume signal extraction when no override file is configured.
func DefaultSkillVocabulary() []string {
	return []string{
		"Javascript",
		"Typescript",
		"React",
		"Node.js",
		"Python",
		"Java",
		"C++",
		"AWS",
		"Docker",
		"Kubernetes",
		"SQL",
		"NoSQL",
		"MongoDB",
	}
}

// loadVocabularyFromFile replaces the configured vocabulary with the
// contents of the vocabulary file, if one is set.
func (c *Config) loadVocabularyFromFile() error {
	if c.Extraction.VocabularyFile == "" {
		return nil
	}

	vocabulary, err := ReadVocabularyFile(c.Extraction.VocabularyFile)
	if err != nil {
		return err
	}
	if len(vocabulary) == 0 {
		return fmt.Errorf("vocabulary file %s contains no skills", c.Extraction.VocabularyFile)
	}

	c.Extraction.Vocabulary = vocabulary
	return nil
}

// ReadVocabularyFile reads a skill vocabulary file: one skill per line,
// blank lines and lines starting with '#' ignored.
func ReadVocabularyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var vocabulary []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		vocabulary = append(vocabulary, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	return vocabulary, nil
}

// VocabularyWatcher watches the vocabulary file for changes and delivers
// the reloaded skill list through a callback.
type VocabularyWatcher struct {
	mu sync.RWMutex

	file        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func([]string)
	logger         *errors.Logger

	running bool
}

// NewVocabularyWatcher creates a new vocabulary file watcher.
func NewVocabularyWatcher(file string, debounceDelay time.Duration, reloadCallback func([]string), logger *errors.Logger) (*VocabularyWatcher, error) {
	if file == "" {
		return nil, fmt.Errorf("vocabulary file path is required")
	}
	if debounceDelay == 0 {
		debounceDelay = time.Second // Default 1 second debounce
	}

	return &VocabularyWatcher{
		file:           file,
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1), // Buffered to prevent blocking
		reloadCallback: reloadCallback,
		logger:         logger,
	}, nil
}

// Start begins watching the vocabulary file for changes.
func (vw *VocabularyWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("vocabulary watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	vw.fsWatcher = watcher

	if stat, err := os.Stat(vw.file); err == nil {
		vw.lastModTime = stat.ModTime()
	}

	// Watch the file and its directory to catch atomic writes (rename operations)
	if err := vw.fsWatcher.Add(vw.file); err != nil && !os.IsNotExist(err) {
		_ = vw.fsWatcher.Close()
		return fmt.Errorf("failed to watch file %s: %w", vw.file, err)
	}
	dir := filepath.Dir(vw.file)
	if err := vw.fsWatcher.Add(dir); err != nil {
		if vw.logger != nil {
			vw.logger.Warn("Failed to watch directory for atomic writes",
				"directory", dir, "error", err)
		}
	}

	vw.running = true
	go vw.watchLoop()

	if vw.logger != nil {
		vw.logger.Info("Vocabulary file watcher started",
			"file", vw.file,
			"debounce_delay", vw.debounceDelay)
	}
	return nil
}

// Stop stops the vocabulary file watcher.
func (vw *VocabularyWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if !vw.running {
		return nil
	}

	close(vw.stopChan)

	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}

	if vw.fsWatcher != nil {
		if err := vw.fsWatcher.Close(); err != nil {
			if vw.logger != nil {
				vw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	vw.running = false

	if vw.logger != nil {
		vw.logger.Info("Vocabulary file watcher stopped")
	}

	return nil
}

// IsRunning returns whether the watcher is currently running.
func (vw *VocabularyWatcher) IsRunning() bool {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return vw.running
}

// watchLoop is the main event loop for file watching
func (vw *VocabularyWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-vw.fsWatcher.Events:
			if !ok {
				return
			}

			if vw.shouldProcessEvent(event) {
				vw.scheduleReload()
			}

		case err, ok := <-vw.fsWatcher.Errors:
			if !ok {
				return
			}
			if vw.logger != nil {
				vw.logger.LogError(err, "File watcher error")
			}

		case <-vw.reloadChan:
			// Debounced reload trigger
			if vw.hasFileChanged() {
				vw.reload()
			}

		case <-vw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (vw *VocabularyWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != vw.file && filepath.Base(event.Name) != filepath.Base(vw.file) {
		return false
	}

	// Process write, create, and rename events
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged checks if the file has been modified since last check
func (vw *VocabularyWatcher) hasFileChanged() bool {
	stat, err := os.Stat(vw.file)
	if err != nil {
		return false
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()

	if stat.ModTime().After(vw.lastModTime) {
		vw.lastModTime = stat.ModTime()
		return true
	}
	return false
}

// reload re-reads the vocabulary file and delivers it to the callback
func (vw *VocabularyWatcher) reload() {
	vocabulary, err := ReadVocabularyFile(vw.file)
	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to reload vocabulary file", "file", vw.file)
		}
		return
	}
	if len(vocabulary) == 0 {
		if vw.logger != nil {
			vw.logger.Warn("Reloaded vocabulary file is empty, keeping previous vocabulary",
				"file", vw.file)
		}
		return
	}

	if vw.logger != nil {
		vw.logger.Info("Vocabulary file changed, applying new skill list",
			"file", vw.file,
			"skills", len(vocabulary))
	}
	vw.reloadCallback(vocabulary)
}

// scheduleReload schedules a debounced reload
func (vw *VocabularyWatcher) scheduleReload() {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	// Reset the debounce timer
	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}

	vw.debounceTimer = time.AfterFunc(vw.debounceDelay, func() {
		select {
		case vw.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}
