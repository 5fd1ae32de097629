package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "updatectl" {
		t.Errorf("expected Use to be 'updatectl', got '%s'", RootCmd.Use)
	}
	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
	if !RootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if !RootCmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expected := []string{"check", "verify", "servers", "trains", "packages"}
	found := make(map[string]bool)
	for _, cmd := range RootCmd.Commands() {
		found[strings.Fields(cmd.Use)[0]] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected command '%s' to be registered", name)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"root", "package-dir"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestNewConfig(t *testing.T) {
	oldRoot, oldPackageDir := rootDir, packageDir
	defer func() { rootDir, packageDir = oldRoot, oldPackageDir }()

	rootDir = t.TempDir()
	packageDir = "/var/tmp/pkg-cache"

	cfg := newConfig()
	if cfg.Root != rootDir {
		t.Errorf("Root = %s; want %s", cfg.Root, rootDir)
	}
	if cfg.PackageDir != "/var/tmp/pkg-cache" {
		t.Errorf("PackageDir = %s; want the flag value", cfg.PackageDir)
	}
}

func TestOpenDB(t *testing.T) {
	oldRoot := rootDir
	defer func() { rootDir = oldRoot }()
	rootDir = t.TempDir()

	cfg := newConfig()

	// Without create, a fresh root has no database.
	if _, err := openDB(cfg, false); err == nil {
		t.Error("openDB(create=false) succeeded on an empty root")
	}

	db, err := openDB(cfg, true)
	if err != nil {
		t.Fatalf("openDB(create=true) failed: %v", err)
	}
	db.Close()

	// Now it exists for read-only opens.
	db, err = openDB(cfg, false)
	if err != nil {
		t.Fatalf("openDB(create=false) after creation failed: %v", err)
	}
	db.Close()
}

func TestRootCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	defer RootCmd.SetOut(nil)
	RootCmd.SetErr(bytes.NewBuffer(nil))
	defer RootCmd.SetErr(nil)

	RootCmd.SetArgs([]string{"--help"})
	if err := RootCmd.Execute(); err != nil {
		t.Errorf("--help returned an error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected help output to contain 'Usage:', got: %s", out)
	}
	if !strings.Contains(out, "download") {
		t.Errorf("expected help output to list the download command, got: %s", out)
	}
}
