package main

import (
	"fmt"

	"github.com/hupe1980/actionweave"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of actionweave",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "actionweave version %s\n", actionweave.Version)
		},
	}
}
