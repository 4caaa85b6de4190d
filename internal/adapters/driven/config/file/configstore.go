// Package file provides a TOML-backed configuration store.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/factsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factsync-cli/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in a TOML file within the factsync config directory.
// Keys use dot notation ("platforms.spotify.client_id") mapped onto nested
// TOML tables.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
	watcher  *fsnotify.Watcher
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.factsync/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".factsync")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	// Load existing data if file exists
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.data, splitKey(key))
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	insert(s.data, splitKey(key), value)
	s.mu.Unlock()
	return s.Save()
}

// Delete removes a configuration value and persists immediately.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	remove(s.data, splitKey(key))
	s.mu.Unlock()
	return s.Save()
}

// Save persists the current configuration to storage.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	data, err := toml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from storage.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	parsed := make(map[string]any)
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = parsed
	s.mu.Unlock()
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Watch reloads the file on edits so updated client credentials are
// picked up without a restart. Call Close to stop watching.
func (s *ConfigStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.filePath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := s.Load(); err != nil {
						logger.Warn("Reloading config failed: %v", err)
					} else {
						logger.Debug("Config reloaded from %s", s.filePath)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the config watcher if one is running.
func (s *ConfigStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// splitKey breaks a dot-notation key into path segments.
func splitKey(key string) []string {
	var segments []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			segments = append(segments, key[start:i])
			start = i + 1
		}
	}
	return append(segments, key[start:])
}

// lookup descends nested maps along the path.
func lookup(data map[string]any, path []string) (any, bool) {
	for i, segment := range path {
		val, ok := data[segment]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return val, true
		}
		data, ok = val.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// insert sets a value at the path, creating intermediate tables.
func insert(data map[string]any, path []string, value any) {
	for _, segment := range path[:len(path)-1] {
		next, ok := data[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			data[segment] = next
		}
		data = next
	}
	data[path[len(path)-1]] = value
}

// remove deletes the value at the path, leaving empty tables in place.
func remove(data map[string]any, path []string) {
	for _, segment := range path[:len(path)-1] {
		next, ok := data[segment].(map[string]any)
		if !ok {
			return
		}
		data = next
	}
	delete(data, path[len(path)-1])
}
