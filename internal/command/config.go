package command

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stolasapp/calliope/internal/config"
)

func configCommand(path *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(
		configInitCommand(path),
		configShowCommand(),
	)
	return cmd
}

func configInitCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if _, err = os.Stat(*path); err == nil {
				resp, err := prompt(cmd, fmt.Sprintf("Config exists at %s. Overwrite? [y|N] ", *path))
				if err != nil || resp != "y" {
					logger.InfoContext(cmd.Context(), "aborted config init")
					return err
				}
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err = config.Write(*path, config.Default()); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "wrote config", slog.String("path", *path))
			return nil
		},
	}
}

func configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
