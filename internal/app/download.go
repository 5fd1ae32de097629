package app

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meridian-os/updatectl/internal/output"
	"github.com/meridian-os/updatectl/internal/resolve"
)

var (
	downloadSaveDir     string
	downloadTrain       string
	downloadDeltaOnly   bool
	downloadFullOnly    bool
	downloadIgnoreSpace bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <package>",
	Short: "Download and verify one package artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if downloadDeltaOnly && downloadFullOnly {
			return fmt.Errorf("--delta-only and --full-only are mutually exclusive")
		}
		cfg := newConfig()

		m, err := cfg.FindLatestManifest(downloadTrain)
		if err != nil {
			return err
		}
		pkg := m.Package(args[0])
		if pkg == nil {
			return fmt.Errorf("package %s is not in the %s manifest", args[0], m.Train)
		}

		resolver := &resolve.Resolver{
			Fetcher:  cfg.Fetcher(),
			CacheDir: cfg.PackageDir,
			Servers:  cfg.ServerURLs(),
		}
		// The installed-version lookup is best effort: a host without
		// a package database still downloads the full artifact.
		if db, err := openDB(cfg, false); err == nil {
			defer db.Close()
			resolver.DB = db
		}

		opts := resolve.Options{
			SaveDir:     downloadSaveDir,
			IgnoreSpace: downloadIgnoreSpace,
		}
		if downloadDeltaOnly {
			opts.Filter = resolve.DeltaOnly
		}
		if downloadFullOnly {
			opts.Filter = resolve.FullOnly
		}

		bar := output.NewDownloadBar(pkg.FileName())
		opts.Progress = bar.Update

		file, err := resolver.Find(pkg, opts)
		if err != nil {
			return err
		}
		defer file.Close()
		bar.Finish()

		size, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		fmt.Printf("Downloaded %s %s (%s)\n", pkg.Name, pkg.Version, humanize.Bytes(uint64(size)))
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadSaveDir, "save-dir", "", "keep the artifact in this directory (resumable)")
	downloadCmd.Flags().StringVar(&downloadTrain, "train", "", "train whose manifest to use (default: current)")
	downloadCmd.Flags().BoolVar(&downloadDeltaOnly, "delta-only", false, "only consider delta payloads")
	downloadCmd.Flags().BoolVar(&downloadFullOnly, "full-only", false, "only consider full payloads")
	downloadCmd.Flags().BoolVar(&downloadIgnoreSpace, "ignore-space", false, "skip the free-space admission check")
}
