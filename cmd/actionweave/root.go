package main

import (
	"os"

	"github.com/hupe1980/actionweave/action"
	"github.com/hupe1980/actionweave/logging"
	"github.com/hupe1980/actionweave/manifest"
	"github.com/hupe1980/actionweave/orchestration"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "actionweave",
		Short:         "Inspect orchestrated LLM action manifests",
		Long:          `actionweave loads YAML action manifests, compiles their orchestration expressions and reports the resulting tool offers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	cmd.PersistentFlags().StringP("manifest", "m", ".", "Manifest file or directory of manifests")
	cmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")

	cmd.AddCommand(
		newValidateCmd(),
		newGraphCmd(),
		newToolsCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return cmd
}

func newLogger(cmd *cobra.Command) (*logging.StructuredLogger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = cmd.ErrOrStderr()
	cfg.Component = "cli"

	return logging.NewLogger(cfg), nil
}

// loaded is a manifest compiled into a registry and graph.
type loaded struct {
	manifest *manifest.Manifest
	registry *action.Registry
	graph    *orchestration.Graph
}

// load reads the --manifest path (or the first argument) and compiles it.
// Handlers are not bound.
func load(cmd *cobra.Command, args []string) (*loaded, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("manifest")
	if !cmd.Flags().Changed("manifest") && len(args) > 0 {
		path = args[0]
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var m *manifest.Manifest
	if info.IsDir() {
		m, err = manifest.LoadDir(path)
	} else {
		m, err = manifest.Load(path)
	}

	if err != nil {
		return nil, err
	}

	logger.Debug("cli.manifest.loaded", "path", path, "actions", len(m.Actions))

	l, err := compile(m)
	if err != nil {
		return nil, err
	}

	logger.Debug("cli.graph.compiled", "nodes", l.graph.Len(), "scopes", l.registry.Scopes())

	return l, nil
}
