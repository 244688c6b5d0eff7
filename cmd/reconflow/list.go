// cmd/reconflow/list.go
package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reconflow/internal/core/domain"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/platform/ui"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <command> [filter...]",
		Short: "List the plugins of a command",
		Example: `  reconflow list collect
  reconflow list login redis
  reconflow list collect @domain !crtsh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
			}

			logger := logx.NewWithWriter(cmd.ErrOrStderr(), logx.LevelWarn)
			loader := registry.Global().NewLoader(&cfg, nil, logger)

			filters := append(append([]string(nil), cfg.Plugins...), args[1:]...)
			descs, err := loader.Discover(args[0], filters)
			if errors.Is(err, domain.ErrNoPluginsMatched) {
				fmt.Fprintf(cmd.OutOrStdout(), "No plugins matched under %s\n", filepath.Join(cfg.PluginDir, args[0]))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), ui.PluginTable(descs))
			fmt.Fprintf(cmd.OutOrStdout(), "%d plugin(s)\n", len(descs))
			return nil
		},
	}

	def := config.DefaultConfig()
	cmd.Flags().StringP("config", "f", "", "Config file (YAML)")
	cmd.Flags().String("plugin-dir", def.PluginDir, "Plugin directory")
	cmd.Flags().StringSliceP("plugin", "p", nil, "Plugin filters: name, !name, @capability")
	return cmd
}
