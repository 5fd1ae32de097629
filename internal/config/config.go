// Package config holds the explicit configuration value threaded
// through the update engine: system root, update servers, temporary
// storage, and the client identity sent with every network request.
// There is no process-wide singleton; callers construct a Config and
// pass it to the components that need it.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/meridian-os/updatectl/internal/fetch"
	"github.com/meridian-os/updatectl/internal/manifest"
)

const (
	// ConfigFile is the fixed relative path of the update-server
	// configuration file under the system root. The .ini extension is
	// load-bearing: viper derives the write format from it.
	ConfigFile = "data/update.ini"

	// systemDataset is preferred over /tmp for large downloads when it
	// exists, so artifacts land on the system pool.
	systemDataset = "/var/db/system"
)

// Config is the engine's configuration value.
type Config struct {
	// Root prefixes every fixed path (database, manifest, config file).
	// Empty means the live filesystem root.
	Root string

	// TempDir receives anonymous download streams.
	TempDir string

	// PackageDir, when set, is the local package cache searched before
	// the network.
	PackageDir string

	mu       sync.Mutex
	servers  map[string]*UpdateServer
	selected string
	manifest *manifest.Manifest
	watcher  *watcher
}

// New builds a Config rooted at root and loads the update-server
// configuration file if one exists.
func New(root string) *Config {
	c := &Config{
		Root:    root,
		TempDir: "/tmp",
	}
	if _, err := os.Stat(systemDataset); err == nil {
		c.TempDir = systemDataset
	}
	c.resetServers()
	// A missing or malformed config file leaves the defaults in place.
	c.loadServers()
	return c
}

func (c *Config) configPath() string {
	return filepath.Join(c.Root, ConfigFile)
}

// SystemManifest loads (and caches) the installed system's manifest.
// Returns nil when the host has no manifest, which happens in build and
// install environments.
func (c *Config) SystemManifest() *manifest.Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manifest == nil {
		m, err := manifest.LoadPath(filepath.Join(c.Root, manifest.SystemManifestFile))
		if err != nil {
			return nil
		}
		c.manifest = m
	}
	return c.manifest
}

// CurrentTrain returns the train the system should follow: a redirect
// recorded in the manifest wins over the train it was built from.
func (c *Config) CurrentTrain() string {
	m := c.SystemManifest()
	if m == nil {
		return ""
	}
	if m.NewTrain != "" {
		return m.NewTrain
	}
	return m.Train
}

// Identity assembles the request header identity from the system
// manifest, host-id file, and license file.
func (c *Config) Identity() fetch.Identity {
	id := fetch.Identity{
		Project: "Meridian",
		HostID:  hostID(c.Root),
		License: licenseToken(c.Root),
	}
	if m := c.SystemManifest(); m != nil {
		id.Sequence = m.Sequence
		id.Version = m.Version
		id.Train = m.Train
	}
	return id
}

// Fetcher returns a fetcher carrying this configuration's identity and
// temp directory.
func (c *Config) Fetcher() *fetch.Fetcher {
	return fetch.New(c.Identity(), c.TempDir)
}

// ServerURLs returns the configured server base URLs in priority order:
// the selected server first, then its master when that differs.
func (c *Config) ServerURLs() []string {
	urls := []string{c.UpdateServerURL()}
	if master := c.UpdateServerMaster(); master != urls[0] {
		urls = append(urls, master)
	}
	return urls
}

// SourceURLs maps a server-relative file path onto every configured
// server, in priority order.
func (c *Config) SourceURLs(file string) []string {
	servers := c.ServerURLs()
	sources := make([]string, 0, len(servers))
	for _, s := range servers {
		sources = append(sources, s+"/"+file)
	}
	return sources
}
