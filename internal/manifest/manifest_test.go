package manifest

import (
	"bytes"
	"strings"
	"testing"
)

const sampleManifest = `{
    "Sequence": "2026010100",
    "Train": "STABLE",
    "Version": "1.0-RELEASE",
    "Notice": "Reboot required after install",
    "Notes": {
        "ChangeLog": "ChangeLog.txt"
    },
    "Packages": [
        {
            "Name": "base-os",
            "Version": "2.0",
            "Checksum": "deadbeef",
            "Size": 1048576,
            "RequiresReboot": true,
            "Upgrades": [
                {"Version": "1.0", "Checksum": "cafe", "Size": 4096},
                {"Version": "1.5", "Checksum": "f00d", "Size": 2048}
            ]
        },
        {
            "Name": "base-tools",
            "Version": "2.0"
        }
    ]
}`

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if m.Sequence != "2026010100" || m.Train != "STABLE" || m.Version != "1.0-RELEASE" {
		t.Errorf("header = %s/%s/%s; want 2026010100/STABLE/1.0-RELEASE",
			m.Sequence, m.Train, m.Version)
	}
	if len(m.Packages) != 2 {
		t.Fatalf("got %d packages; want 2", len(m.Packages))
	}
	if loc := m.Notes["ChangeLog"]; loc != "ChangeLog.txt" {
		t.Errorf("ChangeLog note = %q; want %q", loc, "ChangeLog.txt")
	}

	pkg := m.Packages[0]
	if !pkg.RequiresReboot || pkg.Size != 1048576 || pkg.Checksum != "deadbeef" {
		t.Errorf("package descriptor = %+v; fields lost in parsing", pkg)
	}
	// The delta's "Version" field names the version it upgrades FROM.
	if len(pkg.Upgrades) != 2 || pkg.Upgrades[0].FromVersion != "1.0" {
		t.Errorf("upgrades = %+v; want two deltas keyed by prior version", pkg.Upgrades)
	}
}

func TestLoad_Malformed(t *testing.T) {
	if _, err := Load(strings.NewReader("not json")); err == nil {
		t.Error("Load() accepted malformed input")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	again, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() of saved manifest failed: %v", err)
	}
	if again.Sequence != m.Sequence || len(again.Packages) != len(m.Packages) {
		t.Errorf("round trip lost data: %+v", again)
	}
	if again.Packages[0].Upgrades[1].FromVersion != "1.5" {
		t.Errorf("round trip lost upgrade descriptors: %+v", again.Packages[0].Upgrades)
	}
}

func TestManifestPackage(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if pkg := m.Package("base-tools"); pkg == nil || pkg.Version != "2.0" {
		t.Errorf("Package(base-tools) = %+v; want version 2.0", pkg)
	}
	if pkg := m.Package("no-such"); pkg != nil {
		t.Errorf("Package(no-such) = %+v; want nil", pkg)
	}
}

func TestArtifactNames(t *testing.T) {
	pkg := &Package{Name: "base-os", Version: "2.0"}
	if got := pkg.FileName(); got != "base-os-2.0.tgz" {
		t.Errorf("FileName() = %s; want base-os-2.0.tgz", got)
	}
	if got := pkg.DeltaFileName("1.0"); got != "base-os-1.0-2.0.tgz" {
		t.Errorf("DeltaFileName() = %s; want base-os-1.0-2.0.tgz", got)
	}
}

func TestPackageUpgrade(t *testing.T) {
	m, err := Load(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	pkg := m.Packages[0]

	if up := pkg.Upgrade("1.5"); up == nil || up.Checksum != "f00d" {
		t.Errorf("Upgrade(1.5) = %+v; want the matching delta", up)
	}
	if up := pkg.Upgrade("0.9"); up != nil {
		t.Errorf("Upgrade(0.9) = %+v; want nil", up)
	}
}
