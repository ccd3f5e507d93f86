package trace

import (
	"context"
	"iter"
)

// StreamMode selects what an agent yields per step.
type StreamMode string

// StreamModeValues yields the full state after every step.
const StreamModeValues StreamMode = "values"

// Agent is an external execution engine that can be observed step by step.
// Stream returns a lazy, finite sequence of snapshots. A non-nil error ends
// the sequence; implementations must stop producing once yield returns false.
type Agent interface {
	Stream(ctx context.Context, input *Snapshot, mode StreamMode) iter.Seq2[*Snapshot, error]
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, input *Snapshot, mode StreamMode) iter.Seq2[*Snapshot, error]

// Stream calls f.
func (f AgentFunc) Stream(ctx context.Context, input *Snapshot, mode StreamMode) iter.Seq2[*Snapshot, error] {
	return f(ctx, input, mode)
}
