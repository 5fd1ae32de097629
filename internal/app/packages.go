package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List installed packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newConfig()

		db, err := openDB(cfg, false)
		if err != nil {
			return fmt.Errorf("cannot open package database: %w", err)
		}
		defer db.Close()

		packages, err := db.ListPackages()
		if err != nil {
			return err
		}
		for _, pkg := range packages {
			fmt.Printf("%-32s %s\n", pkg.Name, pkg.Version)
		}
		return nil
	},
}
