package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher reloads the update-server configuration when the file changes
// on disk, so a long-lived Config sees edits without being
// re-constructed.
type watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatchConfig starts watching the configuration file and reloads the
// server list on every write. Stop watching with StopWatching.
func (c *Config) WatchConfig() error {
	c.mu.Lock()
	already := c.watcher != nil
	c.mu.Unlock()
	if already {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory: editors and viper replace the file by
	// rename, which drops a watch placed on the file itself.
	if err := fsw.Add(filepath.Dir(c.configPath())); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &watcher{fsw: fsw, done: make(chan struct{})}
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	name := filepath.Base(c.configPath())
	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					c.resetServers()
					c.loadServers()
				}
			case <-fsw.Errors:
				// Watch errors are not fatal; the next explicit load
				// still reads the file.
			case <-w.done:
				return
			}
		}
	}()
	return nil
}

// StopWatching tears down the configuration watcher.
func (c *Config) StopWatching() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w == nil {
		return
	}
	close(w.done)
	w.fsw.Close()
}
