package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/trace"
)

// MaxLineSize bounds a single JSONL snapshot line.
const MaxLineSize = 16 * 1024 * 1024

// Snapshots decodes JSONL from r, one snapshot per non-blank line.
// Decode and read errors end the sequence; decode errors carry the line number.
func Snapshots(ctx context.Context, r io.Reader) iter.Seq2[*trace.Snapshot, error] {
	return func(yield func(*trace.Snapshot, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

		line := 0
		for scanner.Scan() {
			line++
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}

			snap, err := DecodeSnapshot(text)
			if err != nil {
				logger.Warn("Failed to decode snapshot on line %d: %v", line, err)
				yield(nil, fmt.Errorf("line %d: %w", line, err))
				return
			}
			if !yield(snap, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("reading snapshots: %w", err))
		}
	}
}

// Replay is an agent that re-emits a recorded JSONL snapshot stream.
// The initial input is ignored; the recording already contains it.
type Replay struct {
	r io.Reader
}

// NewReplay creates a Replay reading from r.
func NewReplay(r io.Reader) *Replay {
	return &Replay{r: r}
}

// Stream implements trace.Agent.
func (rp *Replay) Stream(ctx context.Context, input *trace.Snapshot, mode trace.StreamMode) iter.Seq2[*trace.Snapshot, error] {
	logger.Debug("Replaying recorded snapshots (mode=%s)", mode)
	return Snapshots(ctx, rp.r)
}
