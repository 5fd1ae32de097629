package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var checkTrain string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer update sequence is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newConfig()

		latest, err := cfg.FindLatestManifest(checkTrain)
		if err != nil {
			return err
		}

		installed := cfg.SystemManifest()
		if installed == nil {
			fmt.Printf("Latest sequence on %s: %s (no system manifest to compare)\n",
				latest.Train, latest.Sequence)
			return nil
		}

		if latest.Sequence == installed.Sequence {
			fmt.Printf("System is up to date (train %s, sequence %s)\n",
				latest.Train, latest.Sequence)
			return nil
		}

		fmt.Printf("Update available on %s: %s -> %s\n",
			latest.Train, installed.Sequence, latest.Sequence)
		if latest.Notice != "" {
			fmt.Printf("Notice: %s\n", latest.Notice)
		}

		// Remember what we saw so watched-train listings stay current.
		trains := cfg.LoadTrains()
		if t, ok := trains[latest.Train]; ok {
			t.LastSequence = latest.Sequence
			t.LastChecked = time.Now()
			t.HasUpdate = true
			if err := cfg.SaveTrains(trains); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkTrain, "train", "", "train to check (default: current)")
}
