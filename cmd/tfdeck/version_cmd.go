package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/asheshgoplani/tfdeck/internal/config"
)

func newVersionCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print tfdeck and terraform versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tfdeck %s\n", Version)

			cfg, _ := config.Load()
			abs, err := projectDir([]string{dir})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			v, err := cfg.NewClient(abs).Version(ctx)
			if err != nil {
				fmt.Fprintf(out, "%s: unavailable (%v)\n", cfg.TerraformBinary(), err)
				return nil
			}
			fmt.Fprintf(out, "%s %s on %s\n", cfg.TerraformBinary(), v.TerraformVersion, v.Platform)
			if v.Outdated {
				fmt.Fprintln(out, "A newer terraform release is available.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "project directory")
	return cmd
}
