package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xff16/vesta"
)

var validateCmd = &cobra.Command{
	Use:          "validate",
	Short:        "Validates configuration file",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := vesta.LoadConfig(configPath()); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "configuration file is valid, you can start the server")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
