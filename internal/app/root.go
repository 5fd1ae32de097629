package app

import (
	"github.com/spf13/cobra"

	"github.com/meridian-os/updatectl/internal/config"
	"github.com/meridian-os/updatectl/internal/installer"
	"github.com/meridian-os/updatectl/internal/pkgdb"
)

var (
	rootDir    string
	packageDir string

	// RootCmd is the root command for updatectl
	RootCmd = &cobra.Command{
		Use:   "updatectl",
		Short: "Operating system update client",
		Long: `updatectl keeps a host's package state, fetches update artifacts
from the configured update servers, and audits the installed files
against the package database.

Examples:
  # Is a newer sequence available on my train?
  updatectl check

  # Download a verified artifact for one package
  updatectl download base-os --save-dir /var/tmp/updates

  # Audit the live filesystem against the package database
  updatectl verify

  # Manage update servers
  updatectl servers list`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "system root (default: live filesystem)")
	RootCmd.PersistentFlags().StringVar(&packageDir, "package-dir", "", "local package cache directory")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(downloadCmd)
	RootCmd.AddCommand(verifyCmd)
	RootCmd.AddCommand(serversCmd)
	RootCmd.AddCommand(trainsCmd)
	RootCmd.AddCommand(packagesCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// newConfig builds the configuration value shared by all commands.
func newConfig() *config.Config {
	cfg := config.New(rootDir)
	if packageDir != "" {
		cfg.PackageDir = packageDir
	}
	return cfg
}

// openDB opens the package database under the configured root with the
// standard filesystem remover wired in.
func openDB(cfg *config.Config, create bool) (*pkgdb.DB, error) {
	db, err := pkgdb.Open(cfg.Root, create)
	if err != nil {
		return nil, err
	}
	db.SetRemover(installer.Remover{})
	return db, nil
}
