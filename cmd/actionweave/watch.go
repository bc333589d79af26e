package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/actionweave/manifest"
	"github.com/hupe1980/actionweave/orchestration"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-validate a manifest directory on every change",
		Long:  `Watches a directory of YAML manifests and recompiles the orchestration graph whenever a manifest is written, created or removed. Stops on interrupt.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := load(cmd, args)
			if err != nil {
				printInvalid(cmd.OutOrStdout(), err)
			} else {
				printValid(cmd.OutOrStdout(), l)
			}

			dir, _ := cmd.Flags().GetString("manifest")
			if !cmd.Flags().Changed("manifest") && len(args) > 0 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)

			return manifest.Watch(ctx, dir, func(m *manifest.Manifest, err error) {
				if err == nil {
					l, err = compile(m)
				}

				if err != nil {
					printInvalid(cmd.OutOrStdout(), err)
					return
				}

				printValid(cmd.OutOrStdout(), l)
			})
		},
	}
}

// compile builds a handler-less registry from m and compiles its graph.
func compile(m *manifest.Manifest) (*loaded, error) {
	reg, err := m.Build(nil, func(o *manifest.BuildOptions) { o.AllowMissingHandlers = true })
	if err != nil {
		return nil, err
	}

	graph, err := orchestration.Compile(reg)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	return &loaded{manifest: m, registry: reg, graph: graph}, nil
}
