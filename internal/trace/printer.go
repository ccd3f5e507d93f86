// Package trace renders a human-readable, step-by-step trace of an agent's
// execution stream.
package trace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/agenttrace/internal/logger"
)

const (
	bannerWidth     = 80
	timestampLayout = "2006-01-02T15:04:05"
)

var (
	heavyRule = strings.Repeat("=", bannerWidth)
	lightRule = strings.Repeat("-", bannerWidth)
)

// Category tags printed ahead of each message body.
const (
	TagToolCall   = "[AI → TOOL CALL]"
	TagToolResult = "[TOOL → RESULT]"
	TagResponse   = "[AI → RESPONSE]"
	TagOther      = "[OTHER MESSAGE]"
)

// Printer prints one trace block per snapshot.
// A Printer is not safe for concurrent use.
type Printer struct {
	out    io.Writer
	now    func() time.Time
	styles Styles
	step   int
}

// Options configures a Printer.
type Options struct {
	Out    io.Writer        // Trace sink (default: os.Stdout)
	Now    func() time.Time // Clock for the step banner (default: time.Now)
	Styles Styles           // Tag styling (zero value: plain text)
}

// New creates a Printer with its step counter at zero.
func New(opts Options) *Printer {
	p := &Printer{
		out:    opts.Out,
		now:    opts.Now,
		styles: opts.Styles,
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Step returns the number of snapshots rendered so far.
func (p *Printer) Step() int {
	return p.step
}

// Stream drives agent with the given initial messages and renders every
// snapshot it yields, in order. Producer errors are returned unchanged.
// The step counter carries over between calls.
func (p *Printer) Stream(ctx context.Context, agent Agent, messages []Message) error {
	input := NewMessagesSnapshot(messages...)
	logger.Debug("Streaming agent with %d initial message(s)", len(messages))

	for snapshot, err := range agent.Stream(ctx, input, StreamModeValues) {
		if err != nil {
			logger.Debug("Agent stream failed after step %d: %v", p.step, err)
			return err
		}
		if err := p.RenderSnapshot(snapshot); err != nil {
			return err
		}
	}

	logger.Debug("Agent stream finished at step %d", p.step)
	return nil
}

// RenderSnapshot renders a single snapshot. The step counter is advanced
// before the snapshot is validated, so a malformed snapshot still consumes
// a step number.
func (p *Printer) RenderSnapshot(snapshot *Snapshot) error {
	p.step++

	if snapshot == nil {
		return &MalformedSnapshotError{Reason: "nil snapshot"}
	}
	latest, err := snapshot.Latest()
	if err != nil {
		return err
	}
	latest = Normalize(latest)
	if latest == nil {
		return &MalformedSnapshotError{Reason: "latest message is nil"}
	}

	var buf bytes.Buffer
	p.writeHeader(&buf, snapshot, latest)
	p.writeBody(&buf, latest)
	fmt.Fprintln(&buf, p.styles.apply(p.styles.Banner, heavyRule))

	if _, err := p.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing step %d: %w", p.step, err)
	}
	return nil
}

func (p *Printer) writeHeader(buf *bytes.Buffer, snapshot *Snapshot, latest Message) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, p.styles.apply(p.styles.Banner, heavyRule))
	stepLine := fmt.Sprintf("STEP %d  |  time=%s", p.step, p.now().Format(timestampLayout))
	fmt.Fprintln(buf, p.styles.apply(p.styles.Step, stepLine))
	fmt.Fprintf(buf, "State keys: %s\n", FormatRepr(snapshot.Keys()))
	fmt.Fprintln(buf, p.styles.apply(p.styles.Banner, lightRule))

	fmt.Fprintf(buf, "Latest message role: %s\n", ResolveRole(latest))
	fmt.Fprintf(buf, "Latest message class: %s\n", latest.Kind())
}

func (p *Printer) writeBody(buf *bytes.Buffer, latest Message) {
	switch m := latest.(type) {
	case AIToolCallMessage:
		fmt.Fprintln(buf, p.styles.apply(p.styles.ToolCall, TagToolCall))
		for i, call := range m.ToolCalls {
			fmt.Fprintf(buf, "  Tool call %d:\n", i)
			name := "None"
			if call.Name != "" {
				name = call.Name
			}
			fmt.Fprintf(buf, "    name: %s\n", name)
			var args any
			if call.Args != nil {
				args = call.Args
			}
			fmt.Fprintf(buf, "    args: %s\n", FormatRepr(args))
		}

	case ToolResultMessage:
		name := m.Name
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintln(buf, p.styles.apply(p.styles.ToolResult, TagToolResult))
		fmt.Fprintf(buf, "  tool name: %s\n", name)
		fmt.Fprintln(buf, "  result content:")
		fmt.Fprintf(buf, "    %s\n", FormatStr(m.Content))

	case AIResponseMessage:
		fmt.Fprintln(buf, p.styles.apply(p.styles.Response, TagResponse))
		fmt.Fprintln(buf, "  content:")
		fmt.Fprintf(buf, "    %s\n", FormatStr(m.Content))

	default:
		fmt.Fprintln(buf, p.styles.apply(p.styles.Other, TagOther))
		fmt.Fprintln(buf, "  content:")
		fmt.Fprintf(buf, "    %s\n", FormatStr(latest.Body()))
	}
}
