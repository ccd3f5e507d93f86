package main

import (
	"errors"
	"fmt"

	"github.com/mark3labs/agenttrace/internal/ingest"
	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/nats"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Print a recorded snapshot stream step by step",
		Long: `Print a recorded snapshot stream step by step.

The input holds one JSON snapshot per line, as emitted by an agent streaming
in "values" mode. Reads standard input when no file (or "-") is given.
Use --archive to replay a session from the embedded archive instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if session != "" {
				if len(args) > 0 {
					return errors.New("--archive cannot be combined with an input file")
				}
				return replayArchive(cmd, a, session)
			}

			r, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer func() { _ = closeIn() }()

			return a.trace(cmd, ingest.NewReplay(r), nil)
		},
	}

	cmd.Flags().StringVar(&session, "archive", "", "Replay an archived session instead of a file")
	return cmd
}

func replayArchive(cmd *cobra.Command, a *app, session string) error {
	if err := nats.ValidateSession(session); err != nil {
		return err
	}

	archive, closeArchive, err := nats.Open(cmd.Context(), a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := closeArchive(); err != nil {
			logger.Warn("Archive shutdown: %v", err)
		}
	}()

	logger.Info("Replaying archived session %s", session)
	return a.trace(cmd, archive.Source(session), nil)
}
