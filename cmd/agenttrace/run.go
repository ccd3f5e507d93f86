package main

import (
	"github.com/mark3labs/agenttrace/internal/agent"
	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		messages []string
		workDir  string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Launch an agent process and trace its snapshot stream",
		Long: `Launch an agent process and trace its snapshot stream.

The process receives {"input": {"messages": [...]}, "stream_mode": "values"}
as one JSON line on stdin and must write one JSON snapshot per line to stdout.
Without a command, agent_command from the configuration is used.`,
		Example: `  agenttrace run -m "What is the weather in Paris?" -- python agent.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args
			if len(command) == 0 {
				command = a.cfg.AgentCommand
			}
			if len(command) == 0 {
				return agent.ErrNoCommand
			}

			dir := workDir
			if dir == "" {
				dir = a.cfg.WorkDir
			}

			runner := agent.NewRunner(agent.RunnerConfig{
				Command: command[0],
				Args:    command[1:],
				WorkDir: dir,
				Stderr:  cmd.ErrOrStderr(),
			})

			return a.trace(cmd, runner, humanMessages(messages))
		},
	}

	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "Human message for the initial input (repeatable)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for the agent process")
	return cmd
}

func humanMessages(texts []string) []trace.Message {
	msgs := make([]trace.Message, 0, len(texts))
	for _, text := range texts {
		msgs = append(msgs, trace.OtherMessage{Role: "human", Content: text})
	}
	return msgs
}
