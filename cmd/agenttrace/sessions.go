package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/nats"
	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, closeArchive, err := nats.Open(cmd.Context(), a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer func() {
				if err := closeArchive(); err != nil {
					logger.Warn("Archive shutdown: %v", err)
				}
			}()

			sessions, err := archive.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No archived sessions.")
				return nil
			}
			for _, name := range slices.Sorted(maps.Keys(sessions)) {
				fmt.Fprintf(out, "%s\t%d snapshot(s)\n", name, sessions[name])
			}
			return nil
		},
	}
}
