package app

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var trainsCmd = &cobra.Command{
	Use:   "trains",
	Short: "List the update trains offered by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newConfig()

		trains, err := cfg.AvailableTrains()
		if err != nil {
			return err
		}
		if len(trains) == 0 {
			fmt.Println("No trains offered by the update server")
			return nil
		}

		current := cfg.CurrentTrain()
		names := make([]string, 0, len(trains))
		for name := range trains {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			marker := " "
			if name == current {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s\n", marker, name, trains[name])
		}
		return nil
	},
}
