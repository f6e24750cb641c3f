package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/asheshgoplani/tfdeck/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tfdeck configuration",
		Long: `Manage tfdeck's configuration file.

The file lives at ~/.tfdeck/config.toml ($TFDECK_HOME/config.toml when
TFDECK_HOME is set).`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create a commented example config file",
			Long:  "Write an example config.toml with every setting documented.\nAn existing file is left untouched.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.Path()
				if err != nil {
					return err
				}
				created, err := config.WriteExample()
				if err != nil {
					return fmt.Errorf("config init: %w", err)
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.Path()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			},
		},
	)
	return cmd
}
