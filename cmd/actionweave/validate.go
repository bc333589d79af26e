package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Check a manifest and compile its orchestration graph",
		Long:  `Parses the manifest, checks for duplicate actions, malformed expressions, unknown action references and conflicting rules.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := load(cmd, args)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			printValid(cmd.OutOrStdout(), l)

			return nil
		},
	}
}

func printValid(w io.Writer, l *loaded) {
	fmt.Fprintf(w, "%s: %d actions, %d nodes, scopes %s\n",
		color.New(color.FgGreen).Sprint("Manifest is valid"),
		l.registry.Len(), l.graph.Len(), strings.Join(l.registry.Scopes(), ", "))
}

func printInvalid(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", color.New(color.FgRed).Sprint("Manifest is invalid"), err)
}
