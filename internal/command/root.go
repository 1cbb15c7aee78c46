// Package command contains the CLI command constructors.
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stolasapp/calliope/internal/config"
	"github.com/stolasapp/calliope/internal/observability"
)

// RootCommand instantiates the root command, with all sub-commands bound.
func RootCommand() *cobra.Command {
	var (
		configFilePath = config.DefaultPath()
		proxyBase      string
		cacheCapacity  int
	)
	cmd := &cobra.Command{
		Use:          "calliope [command] [flags]",
		Short:        "Render Hive post bodies to safe HTML",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configFilePath)
			if err != nil {
				return fmt.Errorf("failed to load configuration file: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("proxy-base") {
				cfg.ProxyBase = proxyBase
			}
			if flags.Changed("cache-capacity") {
				cfg.CacheCapacity = cacheCapacity
			}
			if err = cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := observability.InitSlog(cfg)
			logger.DebugContext(cmd.Context(), "configuration loaded",
				slog.String("path", configFilePath),
				slog.Any("config", cfg),
			)
			slog.SetDefault(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(
		&configFilePath,
		"config", "c",
		configFilePath,
		"path to the configuration file",
	)
	flags.StringVar(&proxyBase, "proxy-base", "", "image proxy base URL (overrides the config file)")
	flags.IntVar(&cacheCapacity, "cache-capacity", 0, "render cache capacity (overrides the config file)")

	cmd.AddCommand(
		renderCommand(),
		summaryCommand(),
		imageCommand(),
		proxifyCommand(),
		validateCommand(),
		serveCommand(),
		benchCommand(),
		configCommand(&configFilePath),
	)

	return cmd
}
