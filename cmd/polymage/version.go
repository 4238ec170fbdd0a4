package main

import (
	"fmt"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check for a newer release",
	// no config or providers needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("polymage", version.Version)

		if skip, _ := cmd.Flags().GetBool("offline"); skip {
			return nil
		}
		update, err := version.Check(cmd.Context(), nil, version.ReleasesURL, version.Version)
		if err != nil {
			fmt.Printf("%s could not check for updates: %v\n", cli.WarningSign(), err)
			return nil
		}
		if update != nil {
			fmt.Printf("%s %s is available (running %s) %s\n", cli.WarningSign(), update.Latest, update.Current, update.URL)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("offline", false, "Skip the update check")
}
