package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-os/updatectl/internal/output"
	"github.com/meridian-os/updatectl/internal/verify"
)

var verifyQuiet bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Audit the live filesystem against the package database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newConfig()

		db, err := openDB(cfg, false)
		if err != nil {
			return fmt.Errorf("cannot open package database: %w", err)
		}
		defer db.Close()

		auditor := verify.New(db)
		auditor.Root = cfg.Root

		var progress verify.ProgressFunc
		if !verifyQuiet {
			progress = output.NewVerifyCounter().Update
		}

		report, err := auditor.Run(progress)
		if err != nil {
			return err
		}

		for _, cat := range []verify.Category{
			verify.CategoryNotFound,
			verify.CategoryWrongType,
			verify.CategoryChecksum,
		} {
			for _, p := range report.Errors[cat] {
				fmt.Printf("%s: %s: %s\n", cat, p.Path, p.Detail)
			}
		}
		if !verifyQuiet {
			for _, p := range report.Warnings {
				fmt.Printf("warning: %s: %s\n", p.Path, p.Detail)
			}
		}

		if report.HasErrors() {
			errs := report.Errors
			return fmt.Errorf("verification failed: %d missing, %d wrong type, %d checksum mismatches",
				len(errs[verify.CategoryNotFound]),
				len(errs[verify.CategoryWrongType]),
				len(errs[verify.CategoryChecksum]))
		}

		fmt.Printf("Verification passed (%d warnings)\n", len(report.Warnings))
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyQuiet, "quiet", "q", false, "only report errors")
}
