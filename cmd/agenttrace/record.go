package main

import (
	"fmt"

	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/nats"
	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/spf13/cobra"
)

type recordOptions struct {
	session string
	print   bool
	reset   bool
}

func newRecordCmd(a *app) *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record [file|-]",
		Short: "Store a snapshot stream in the embedded archive",
		Long: `Store a JSONL snapshot stream in the embedded JetStream archive.

Every line is validated before it is stored. The session defaults to the
input file name (or "stdin"); recordings into an existing session are
appended. Replay a session with 'agenttrace replay --archive <session>'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, a, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "Session name (default: input file name stem)")
	cmd.Flags().BoolVar(&opts.print, "print", false, "Also print the trace while recording")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Delete the session's archived snapshots before recording")
	return cmd
}

func runRecord(cmd *cobra.Command, a *app, opts recordOptions, args []string) (err error) {
	session := opts.session
	if session == "" {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		session = nats.SessionFromPath(path)
	}
	if err := nats.ValidateSession(session); err != nil {
		return err
	}

	r, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer func() { _ = closeIn() }()

	archive, closeArchive, err := nats.Open(cmd.Context(), a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := closeArchive(); err != nil {
			logger.Warn("Archive shutdown: %v", err)
		}
	}()

	if opts.reset {
		if err := archive.Purge(cmd.Context(), session); err != nil {
			return err
		}
	}

	var (
		onSnapshot func(*trace.Snapshot) error
		printErr   error
	)
	if opts.print {
		out, styles, closeOut, serr := a.openSink(cmd.OutOrStdout())
		if serr != nil {
			return serr
		}
		defer func() {
			if cerr := closeOut(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output: %w", cerr)
			}
		}()
		// A snapshot the printer rejects is still archived; printing stops
		// and the failure is reported once recording completes.
		printer := trace.New(trace.Options{Out: out, Styles: styles})
		onSnapshot = func(snap *trace.Snapshot) error {
			if printErr == nil {
				printErr = printer.RenderSnapshot(snap)
			}
			return nil
		}
	}

	result, err := archive.Record(cmd.Context(), session, r, onSnapshot)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %d snapshot(s) to session %s (run %s)\n", result.Snapshots, session, result.RunID)
	if printErr != nil {
		return fmt.Errorf("failed to print trace: %w", printErr)
	}
	return nil
}
