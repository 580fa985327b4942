package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mlworkflow/internal/config"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the mlworkflow configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(a.cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&path, "output", "o", config.DefaultFile, "file to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
