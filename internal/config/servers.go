package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Default update-server endpoints, compiled in so a host with no
// configuration file can still update.
const (
	DefaultServerName = "default"
	DefaultServerURL  = "https://update.meridian-os.org/updates"
	DefaultMasterURL  = "https://update-master.meridian-os.org/updates"
)

// Config file layout: a [Defaults] section selecting the active server
// by name, plus one section per additional server.
const (
	sectionDefaults = "Defaults"
	keyServer       = "update_server"
	keyName         = "name"
	keyURL          = "url"
	keyMaster       = "master"
	keySigning      = "signing"
)

// ErrUnknownServer is returned when a server name is not configured.
var ErrUnknownServer = errors.New("update server not configured")

// UpdateServer describes one update endpoint. Master is the
// authoritative server consulted for manifests when it differs from the
// mirror URL.
type UpdateServer struct {
	Name              string
	URL               string
	Master            string
	SignatureRequired bool
}

// MasterURL returns the authoritative endpoint, falling back to the
// mirror URL when no separate master is configured.
func (s *UpdateServer) MasterURL() string {
	if s.Master != "" {
		return s.Master
	}
	return s.URL
}

func defaultServer() *UpdateServer {
	return &UpdateServer{
		Name:              DefaultServerName,
		URL:               DefaultServerURL,
		Master:            DefaultMasterURL,
		SignatureRequired: true,
	}
}

func (c *Config) resetServers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.servers = map[string]*UpdateServer{DefaultServerName: defaultServer()}
	c.selected = DefaultServerName
}

func (c *Config) selectedServer() *UpdateServer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.servers[c.selected]; ok {
		return s
	}
	return c.servers[DefaultServerName]
}

// UpdateServerName returns the name of the active update server.
func (c *Config) UpdateServerName() string { return c.selectedServer().Name }

// UpdateServerURL returns the active server's mirror URL.
func (c *Config) UpdateServerURL() string { return c.selectedServer().URL }

// UpdateServerMaster returns the active server's authoritative URL.
func (c *Config) UpdateServerMaster() string { return c.selectedServer().MasterURL() }

// UpdateServerSigned reports whether the active server requires signed
// manifests.
func (c *Config) UpdateServerSigned() bool { return c.selectedServer().SignatureRequired }

// ListUpdateServers returns the configured server names, sorted.
func (c *Config) ListUpdateServers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.servers))
	for name := range c.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetUpdateServer selects the active server by name and saves the
// configuration.
func (c *Config) SetUpdateServer(name string) error {
	c.mu.Lock()
	if _, ok := c.servers[name]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrUnknownServer)
	}
	c.selected = name
	c.mu.Unlock()
	return c.saveServers()
}

// AddUpdateServer registers a server and saves the configuration. The
// compiled-in default cannot be replaced.
func (c *Config) AddUpdateServer(server *UpdateServer) error {
	if server == nil || server.Name == "" || server.URL == "" {
		return fmt.Errorf("update server needs a name and a url")
	}
	if server.Name == DefaultServerName {
		return nil
	}
	c.mu.Lock()
	c.servers[server.Name] = server
	c.mu.Unlock()
	return c.saveServers()
}

// RemoveUpdateServer deletes a server by name, reverting the selection
// to the default when the removed server was active. Removing the
// default itself is ignored.
func (c *Config) RemoveUpdateServer(name string) error {
	if name == DefaultServerName {
		return nil
	}
	c.mu.Lock()
	if _, ok := c.servers[name]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrUnknownServer)
	}
	delete(c.servers, name)
	if c.selected == name {
		c.selected = DefaultServerName
	}
	c.mu.Unlock()
	return c.saveServers()
}

// loadServers reads the INI configuration file. A missing or unreadable
// file leaves the compiled-in defaults selected.
func (c *Config) loadServers() {
	v := viper.New()
	v.SetConfigFile(c.configPath())
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for section := range v.AllSettings() {
		if section == strings.ToLower(sectionDefaults) {
			if name := v.GetString(section + "." + keyServer); name != "" {
				c.selected = name
			}
			continue
		}

		name := v.GetString(section + "." + keyName)
		url := v.GetString(section + "." + keyURL)
		if name == "" || url == "" {
			continue
		}
		server := &UpdateServer{Name: name, URL: url, SignatureRequired: true}
		if master := v.GetString(section + "." + keyMaster); master != "" {
			server.Master = master
		}
		if v.IsSet(section + "." + keySigning) {
			server.SignatureRequired = v.GetBool(section + "." + keySigning)
		}
		c.servers[name] = server
	}

	if _, ok := c.servers[c.selected]; !ok {
		c.selected = DefaultServerName
	}
}

// saveServers writes the non-default servers and the active selection
// back to the configuration file.
func (c *Config) saveServers() error {
	v := viper.New()
	v.SetConfigType("ini")

	c.mu.Lock()
	if c.selected != DefaultServerName {
		v.Set(sectionDefaults+"."+keyServer, c.selected)
	}
	for name, server := range c.servers {
		if name == DefaultServerName {
			continue
		}
		v.Set(name+"."+keyName, server.Name)
		v.Set(name+"."+keyURL, server.URL)
		v.Set(name+"."+keySigning, server.SignatureRequired)
		if server.Master != "" && server.Master != server.URL {
			v.Set(name+"."+keyMaster, server.Master)
		}
	}
	c.mu.Unlock()

	path := c.configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// Never follow a symlinked config file when rewriting it.
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		os.Remove(path)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
