/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/fulmenhq/vaultpub/pkg/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate vaultpub configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	show.Flags().String("format", formatYAML, "Output format (yaml|toml|json)")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that the effective configuration can drive a publish run",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}

	cmd.AddCommand(show, validate)
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "toml" {
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return writeFormatted(cmd.OutOrStdout(), format, cfg, func(io.Writer) error {
		return fmt.Errorf("unsupported format %q (use yaml, toml or json)", format)
	})
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration valid (schema %s): publishing %s into %s\n",
		config.SchemaVersion, cfg.Vault, cfg.PublishDir())
	return err
}
