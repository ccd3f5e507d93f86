package nats

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/agenttrace/internal/ingest"
	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// fetchTimeout bounds the wait for one archived snapshot during replay.
// Cancelling the replay context stops the wait immediately.
const fetchTimeout = 5 * time.Second

// Archive stores raw snapshot streams per session in JetStream so they can
// be replayed through the printer later.
type Archive struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewArchive creates an Archive over an existing stream (see SetupStream).
func NewArchive(js jetstream.JetStream, stream jetstream.Stream) *Archive {
	return &Archive{
		js:     js,
		stream: stream,
	}
}

// Append stores one raw snapshot line for session. seq numbers the snapshot
// within the run and, with runID, forms the deduplication ID.
func (a *Archive) Append(ctx context.Context, session, runID string, seq int, raw []byte) (*jetstream.PubAck, error) {
	if err := ValidateSession(session); err != nil {
		return nil, err
	}

	msg := nats.NewMsg(SubjectForSession(session))
	msg.Data = raw
	msg.Header.Set(HeaderRun, runID)

	ack, err := a.js.PublishMsg(ctx, msg, jetstream.WithMsgID(fmt.Sprintf("%s-%d", runID, seq)))
	if err != nil {
		logger.Error("Failed to publish snapshot to %s: %v", msg.Subject, err)
		return nil, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	logger.Debug("Archived snapshot: session=%s run=%s seq=%d stream_seq=%d", session, runID, seq, ack.Sequence)
	return ack, nil
}

// RecordResult summarizes a Record call.
type RecordResult struct {
	RunID     string
	Snapshots int
}

// Record archives every JSONL snapshot read from r under session. Each line
// must decode as a snapshot; onSnapshot, when set, is called with the decoded
// snapshot after it has been stored and can abort the recording.
func (a *Archive) Record(ctx context.Context, session string, r io.Reader, onSnapshot func(*trace.Snapshot) error) (RecordResult, error) {
	result := RecordResult{RunID: uuid.NewString()}
	if err := ValidateSession(session); err != nil {
		return result, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), ingest.MaxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return result, err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		snap, err := ingest.DecodeSnapshot(raw)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}

		// scanner reuses its buffer
		data := append([]byte(nil), raw...)
		if _, err := a.Append(ctx, session, result.RunID, result.Snapshots+1, data); err != nil {
			return result, err
		}
		result.Snapshots++

		if onSnapshot != nil {
			if err := onSnapshot(snap); err != nil {
				return result, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading snapshots: %w", err)
	}

	logger.Info("Recorded %d snapshot(s) to session %s (run %s)", result.Snapshots, session, result.RunID)
	return result, nil
}

// Sessions returns the archived session names with their snapshot counts.
func (a *Archive) Sessions(ctx context.Context) (map[string]uint64, error) {
	info, err := a.stream.Info(ctx, jetstream.WithSubjectFilter("agenttrace.>"))
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}

	sessions := make(map[string]uint64, len(info.State.Subjects))
	for subject, count := range info.State.Subjects {
		if name, ok := sessionFromSubject(subject); ok {
			sessions[name] = count
		}
	}
	return sessions, nil
}

// Purge removes every archived snapshot of session.
func (a *Archive) Purge(ctx context.Context, session string) error {
	if err := ValidateSession(session); err != nil {
		return err
	}
	logger.Debug("Purging archived snapshots for session %s", session)
	if err := a.stream.Purge(ctx, jetstream.WithPurgeSubject(SubjectForSession(session))); err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}
	return nil
}

// Source returns an agent replaying session's archived snapshots in the
// order they were recorded.
func (a *Archive) Source(session string) trace.Agent {
	return &archiveSource{archive: a, session: session}
}

type archiveSource struct {
	archive *Archive
	session string
}

// Stream implements trace.Agent. The input is ignored.
func (s *archiveSource) Stream(ctx context.Context, input *trace.Snapshot, mode trace.StreamMode) iter.Seq2[*trace.Snapshot, error] {
	return func(yield func(*trace.Snapshot, error) bool) {
		if err := ValidateSession(s.session); err != nil {
			yield(nil, err)
			return
		}
		subject := SubjectForSession(s.session)

		last, err := s.archive.stream.GetLastMsgForSubject(ctx, subject)
		if errors.Is(err, jetstream.ErrMsgNotFound) {
			logger.Debug("No archived snapshots for session %s", s.session)
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("failed to look up session %s: %w", s.session, err))
			return
		}

		cons, err := s.archive.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
			FilterSubjects: []string{subject},
			DeliverPolicy:  jetstream.DeliverAllPolicy,
		})
		if err != nil {
			yield(nil, fmt.Errorf("failed to create consumer: %w", err))
			return
		}

		msgs, err := cons.Messages()
		if err != nil {
			yield(nil, fmt.Errorf("failed to start consuming session %s: %w", s.session, err))
			return
		}
		defer msgs.Stop()
		stopOnCancel := context.AfterFunc(ctx, msgs.Stop)
		defer stopOnCancel()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			idle := time.AfterFunc(fetchTimeout, msgs.Stop)
			msg, err := msgs.Next()
			timedOut := !idle.Stop()
			if err != nil {
				switch {
				case ctx.Err() != nil:
					yield(nil, ctx.Err())
				case timedOut:
					yield(nil, fmt.Errorf("failed to fetch archived snapshot: no message within %s: %w", fetchTimeout, err))
				default:
					yield(nil, fmt.Errorf("failed to fetch archived snapshot: %w", err))
				}
				return
			}

			meta, err := msg.Metadata()
			if err != nil {
				yield(nil, fmt.Errorf("failed to read message metadata: %w", err))
				return
			}

			snap, err := ingest.DecodeSnapshot(msg.Data())
			if err != nil {
				yield(nil, fmt.Errorf("archived snapshot %d: %w", meta.Sequence.Stream, err))
				return
			}
			if !yield(snap, nil) {
				return
			}
			if meta.Sequence.Stream >= last.Sequence {
				return
			}
		}
	}
}
