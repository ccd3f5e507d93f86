package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/agenttrace/internal/config"
	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	var project, force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create agenttrace configuration file",
		Long: `Create an agenttrace configuration file with sensible defaults.

By default, creates a global config at ~/.config/agenttrace/agenttrace.yml.
Use --project to create a project-local config in the current directory.`,
		Args: cobra.NoArgs,
		// no config needed to write one
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			targetPath := config.GlobalPath()
			if project {
				targetPath = config.ProjectPath()
			}

			if !force && fileExists(targetPath) {
				return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
			}

			var err error
			if project {
				err = config.WriteProject(config.Default())
			} else {
				err = config.WriteGlobal(config.Default())
			}
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config written to: %s\n\n", targetPath)
			fmt.Fprintln(out, "Run 'agenttrace replay <file>' to get started.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&project, "project", "p", false, "Create config in current directory instead of global location")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
