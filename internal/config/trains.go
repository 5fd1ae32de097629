package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/meridian-os/updatectl/internal/fetch"
	"github.com/meridian-os/updatectl/internal/manifest"
	"github.com/meridian-os/updatectl/internal/pkgdb"
)

// TrainsFile is the name of the remote train index on the update
// server and of the local watched-trains file in the temp directory.
const TrainsFile = "trains.txt"

const watchedTrainsFile = "Trains.json"

// Train is one watched update channel and what we last saw on it.
type Train struct {
	Name         string    `json:"-"`
	Description  string    `json:"Description,omitempty"`
	LastSequence string    `json:"Sequence,omitempty"`
	LastChecked  time.Time `json:"LastChecked,omitempty"`
	Notice       string    `json:"-"`
	HasUpdate    bool      `json:"-"`
}

func (c *Config) watchedTrainsPath() string {
	return filepath.Join(c.TempDir, watchedTrainsFile)
}

// LoadTrains reads the locally watched trains. The system's own train
// is always present, seeded from the manifest when the file does not
// mention it.
func (c *Config) LoadTrains() map[string]*Train {
	trains := map[string]*Train{}

	if data, err := os.ReadFile(c.watchedTrainsPath()); err == nil {
		var stored map[string]*Train
		if err := json.Unmarshal(data, &stored); err == nil {
			for name, t := range stored {
				t.Name = name
				trains[name] = t
			}
		}
	}

	if m := c.SystemManifest(); m != nil {
		if _, ok := trains[m.Train]; !ok {
			trains[m.Train] = &Train{
				Name:         m.Train,
				Description:  "Installed OS",
				LastSequence: m.Sequence,
			}
		}
	}
	return trains
}

// SaveTrains writes the watched-trains file.
func (c *Config) SaveTrains(trains map[string]*Train) error {
	data, err := json.MarshalIndent(trains, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode trains: %w", err)
	}
	path := c.watchedTrainsPath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// trainLine matches "<name> <description>" entries in the remote index.
var trainLine = regexp.MustCompile(`^(\S+)\s+(.*)$`)

// AvailableTrains fetches the update server's train index and returns
// train names mapped to their descriptions.
func (c *Config) AvailableTrains() (map[string]string, error) {
	file, err := c.Fetcher().Fetch(c.SourceURLs(TrainsFile), fetchOptions("FetchTrains"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch train list: %w", err)
	}
	defer file.Close()

	trains := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		m := trainLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		trains[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read train list: %w", err)
	}
	return trains, nil
}

// FindLatestManifest fetches the newest manifest for a train from the
// authoritative server. An empty train means the system's current one.
func (c *Config) FindLatestManifest(train string) (*manifest.Manifest, error) {
	if train == "" {
		train = c.CurrentTrain()
		if train == "" {
			return nil, fmt.Errorf("no train given and no system manifest present")
		}
	}

	url := fmt.Sprintf("%s/%s/LATEST", c.UpdateServerMaster(), train)
	file, err := c.Fetcher().Fetch([]string{url}, fetchOptions("GetLatestManifest"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for train %s: %w", train, err)
	}
	defer file.Close()
	return manifest.Load(file)
}

// GetChangeLog fetches a train's changelog, saving it under saveDir
// when given. A missing changelog is not an error; the caller gets nil.
func (c *Config) GetChangeLog(train, saveDir string) (*os.File, error) {
	opts := fetchOptions("GetChangeLog")
	if saveDir != "" {
		opts.Destination = filepath.Join(saveDir, "ChangeLog.txt")
	}
	file, err := c.Fetcher().Fetch(c.SourceURLs(train+"/ChangeLog.txt"), opts)
	if err != nil {
		return nil, nil
	}
	return file, nil
}

// CurrentPackageVersion looks up the installed version of a package,
// returning "" when the package database or the package is absent.
func (c *Config) CurrentPackageVersion(name string) string {
	db, err := pkgdb.Open(c.Root, false)
	if err != nil {
		return ""
	}
	defer db.Close()
	pkg, err := db.FindPackage(name)
	if err != nil {
		return ""
	}
	return pkg.Version
}

func fetchOptions(reason string) fetch.Options {
	return fetch.Options{Reason: reason}
}
