package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/mark3labs/agenttrace/internal/config"
	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by all subcommands of one root command.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "agenttrace",
		Short: "Step-by-step trace printer for agent state streams",
		Long: `agenttrace prints every snapshot of an agent's "values" stream as a
numbered, timestamped block describing the latest message: tool calls with
their arguments, tool results, final answers and everything else.

Snapshots come from a JSONL recording (replay), a live agent process (run)
or the embedded JetStream archive (record, then replay --archive).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("output", "o", "", "Write the trace to a file instead of stdout")
	flags.String("color", "", "Color mode for category tags: auto, always, never (default: auto)")
	flags.String("data-dir", "", "Data directory for the snapshot archive (default: .agenttrace)")
	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	_ = a.v.BindPFlag("color", flags.Lookup("color"))
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))

	cmd.AddCommand(newReplayCmd(a))
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newRecordCmd(a))
	cmd.AddCommand(newSessionsCmd(a))
	cmd.AddCommand(newSetupCmd())
	return cmd
}

// load resolves configuration and applies the logging settings.
func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWith(a.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.Debug("Config loaded: output=%q color=%s data_dir=%s", cfg.Output, cfg.Color, cfg.DataDir)
	a.cfg = cfg
	return nil
}

// openSink returns the trace destination, the tag styles matching the color
// mode and a close function for the destination.
func (a *app) openSink(stdout io.Writer) (io.Writer, trace.Styles, func() error, error) {
	out := stdout
	closeFn := func() error { return nil }
	if a.cfg.Output != "" {
		f, err := os.Create(a.cfg.Output)
		if err != nil {
			return nil, trace.Styles{}, nil, fmt.Errorf("failed to open output: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	switch strings.ToLower(a.cfg.Color) {
	case config.ColorNever:
		return out, trace.Styles{}, closeFn, nil
	case config.ColorAlways:
		w := colorprofile.NewWriter(out, os.Environ())
		w.Profile = colorprofile.TrueColor
		return w, trace.DefaultStyles(), closeFn, nil
	default:
		// downsampled, or stripped when out is not a terminal
		return colorprofile.NewWriter(out, os.Environ()), trace.DefaultStyles(), closeFn, nil
	}
}

// trace runs source through a fresh printer writing to the configured sink.
func (a *app) trace(cmd *cobra.Command, source trace.Agent, messages []trace.Message) (err error) {
	out, styles, closeOut, err := a.openSink(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	p := trace.New(trace.Options{Out: out, Styles: styles})
	err = p.Stream(cmd.Context(), source, messages)
	logger.Info("Traced %d step(s)", p.Step())
	return err
}

// openInput opens the file named by args[0], or the command's stdin when
// no argument or "-" is given.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func() error, error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, f.Close, nil
}
