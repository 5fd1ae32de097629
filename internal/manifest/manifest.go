// Package manifest defines the update-manifest and package-descriptor
// types the engine consumes. Manifest production, signing, and train
// metadata live on the server side; this package only reads them.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// SystemManifestFile is the fixed relative path of the installed
// system's manifest under the system root.
const SystemManifestFile = "data/manifest"

// Manifest describes the package set of one train/sequence.
type Manifest struct {
	Sequence string     `json:"Sequence"`
	Train    string     `json:"Train"`
	Version  string     `json:"Version"`
	NewTrain string     `json:"NewTrain,omitempty"`
	Notice   string     `json:"Notice,omitempty"`
	Notes    Notes      `json:"Notes,omitempty"`
	Packages []*Package `json:"Packages"`
}

// Notes maps note names (e.g. "ChangeLog") to their server-relative
// locations.
type Notes map[string]string

// Package is the descriptor of one package within a manifest.
type Package struct {
	Name           string     `json:"Name"`
	Version        string     `json:"Version"`
	Checksum       string     `json:"Checksum,omitempty"`
	Size           int64      `json:"Size,omitempty"`
	RequiresReboot bool       `json:"RequiresReboot,omitempty"`
	Upgrades       []*Upgrade `json:"Upgrades,omitempty"`
}

// Upgrade describes a delta payload that brings one specific prior
// version up to the package's version.
type Upgrade struct {
	FromVersion    string `json:"Version"`
	Checksum       string `json:"Checksum,omitempty"`
	Size           int64  `json:"Size,omitempty"`
	RequiresReboot bool   `json:"RequiresReboot,omitempty"`
}

// Load parses a manifest from a stream.
func Load(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// LoadPath parses the manifest file at path.
func LoadPath(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes the manifest as indented JSON.
func (m *Manifest) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Package returns the descriptor for the named package, or nil.
func (m *Manifest) Package(name string) *Package {
	for _, p := range m.Packages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FileName returns the full-package artifact filename.
func (p *Package) FileName() string {
	return fmt.Sprintf("%s-%s.tgz", p.Name, p.Version)
}

// DeltaFileName returns the delta artifact filename upgrading from the
// given prior version.
func (p *Package) DeltaFileName(fromVersion string) string {
	return fmt.Sprintf("%s-%s-%s.tgz", p.Name, fromVersion, p.Version)
}

// Upgrade returns the delta descriptor from the given prior version, or
// nil if the manifest publishes none.
func (p *Package) Upgrade(fromVersion string) *Upgrade {
	for _, u := range p.Upgrades {
		if u.FromVersion == fromVersion {
			return u
		}
	}
	return nil
}
