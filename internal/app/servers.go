package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-os/updatectl/internal/config"
)

var (
	serverURL     string
	serverMaster  string
	serverNoSign  bool
	serversSelect bool
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage update servers",
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured update servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := newConfig()
		active := cfg.UpdateServerName()
		for _, name := range cfg.ListUpdateServers() {
			marker := " "
			if name == active {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var serversAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an update server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverURL == "" {
			return fmt.Errorf("--url is required")
		}
		cfg := newConfig()
		server := &config.UpdateServer{
			Name:              args[0],
			URL:               serverURL,
			Master:            serverMaster,
			SignatureRequired: !serverNoSign,
		}
		if err := cfg.AddUpdateServer(server); err != nil {
			return err
		}
		if serversSelect {
			return cfg.SetUpdateServer(args[0])
		}
		return nil
	},
}

var serversRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an update server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newConfig().RemoveUpdateServer(args[0])
	},
}

var serversSelectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Select the active update server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newConfig().SetUpdateServer(args[0])
	},
}

func init() {
	serversAddCmd.Flags().StringVar(&serverURL, "url", "", "server base URL")
	serversAddCmd.Flags().StringVar(&serverMaster, "master", "", "authoritative server URL, if different")
	serversAddCmd.Flags().BoolVar(&serverNoSign, "no-signing", false, "do not require signed manifests")
	serversAddCmd.Flags().BoolVar(&serversSelect, "select", false, "also make this the active server")

	serversCmd.AddCommand(serversListCmd)
	serversCmd.AddCommand(serversAddCmd)
	serversCmd.AddCommand(serversRemoveCmd)
	serversCmd.AddCommand(serversSelectCmd)
}
