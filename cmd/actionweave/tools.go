package main

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/toolset"
	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools [manifest]",
		Short: "Show the tools offered at a graph node",
		Long:  `Resolves the rule of a node (a scope name or an action name) and prints the offer mode and tool definitions as JSON.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _ := cmd.Flags().GetString("node")

			l, err := load(cmd, args)
			if err != nil {
				return err
			}

			d, err := toolset.Resolve(node, l.graph, l.registry)
			if err != nil {
				return err
			}

			out := struct {
				Node   string `json:"node"`
				Mode   string `json:"mode"`
				Forced string `json:"forced,omitempty"`
				Tools  any    `json:"tools"`
			}{Node: node, Mode: d.Mode.String(), Forced: d.Forced, Tools: d.Tools}

			if len(d.Tools) == 0 {
				out.Tools = []any{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringP("node", "n", action.DefaultScope, "Graph node (scope or action name)")

	return cmd
}
