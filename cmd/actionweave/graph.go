package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [manifest]",
		Short: "Export the compiled orchestration graph",
		Long:  `Compiles the manifest and prints its orchestration graph as a Mermaid diagram (graph TD) or as plain text.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			l, err := load(cmd, args)
			if err != nil {
				return err
			}

			switch format {
			case "mermaid":
				fmt.Fprint(cmd.OutOrStdout(), l.graph.Mermaid())
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), l.graph.String())
			default:
				return fmt.Errorf("unknown format %q (want mermaid or text)", format)
			}

			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "mermaid", "Output format (mermaid or text)")

	return cmd
}
