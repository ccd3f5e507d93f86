package nats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherRun = `{"messages":[{"type":"human","content":"weather in Paris?"},{"type":"ai","content":"","tool_calls":[{"id":"call_1","name":"get_weather","args":{"city":"Paris"}}]}]}
{"messages":[{"type":"tool","name":"get_weather","content":"18C, cloudy"}]}

{"messages":[{"type":"ai","content":"It is 18C and cloudy in Paris."}]}
`

func openArchive(t *testing.T) *Archive {
	t.Helper()
	archive, closeFn, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	return archive
}

func drain(t *testing.T, agent trace.Agent) ([]*trace.Snapshot, error) {
	t.Helper()
	var snaps []*trace.Snapshot
	for snap, err := range agent.Stream(context.Background(), nil, trace.StreamModeValues) {
		if err != nil {
			return snaps, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func TestArchive_RecordAndReplay(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()

	var seen []string
	result, err := archive.Record(ctx, "weather", strings.NewReader(weatherRun), func(s *trace.Snapshot) error {
		latest, err := s.Latest()
		require.NoError(t, err)
		seen = append(seen, latest.Kind())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Snapshots)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"AIToolCallMessage", "ToolResultMessage", "AIResponseMessage"}, seen)

	snaps, err := drain(t, archive.Source("weather"))
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	var kinds []string
	for _, s := range snaps {
		latest, err := s.Latest()
		require.NoError(t, err)
		kinds = append(kinds, latest.Kind())
	}
	assert.Equal(t, seen, kinds)
}

func TestArchive_ReplayThroughPrinter(t *testing.T) {
	archive := openArchive(t)
	_, err := archive.Record(context.Background(), "weather", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	p := trace.New(trace.Options{Out: &buf})
	require.NoError(t, p.Stream(context.Background(), archive.Source("weather"), nil))
	assert.Equal(t, 3, p.Step())

	out := buf.String()
	assert.Contains(t, out, "args: {'city': 'Paris'}")
	assert.Contains(t, out, "  tool name: get_weather")
	assert.Contains(t, out, "    It is 18C and cloudy in Paris.")
}

func TestArchive_SessionsAreIsolated(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()

	_, err := archive.Record(ctx, "first", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)
	_, err = archive.Record(ctx, "second", strings.NewReader(`{"messages":[{"type":"ai","content":"only"}]}`), nil)
	require.NoError(t, err)

	snaps, err := drain(t, archive.Source("second"))
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	sessions, err := archive.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"first": 3, "second": 1}, sessions)
}

func TestArchive_RecordingAppends(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()

	first, err := archive.Record(ctx, "weather", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)
	second, err := archive.Record(ctx, "weather", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	snaps, err := drain(t, archive.Source("weather"))
	require.NoError(t, err)
	assert.Len(t, snaps, 6)
}

func TestArchive_AppendDeduplicates(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()
	raw := []byte(`{"messages":[{"type":"ai","content":"once"}]}`)

	ack, err := archive.Append(ctx, "dedupe", "run-1", 1, raw)
	require.NoError(t, err)
	assert.False(t, ack.Duplicate)

	ack, err = archive.Append(ctx, "dedupe", "run-1", 1, raw)
	require.NoError(t, err)
	assert.True(t, ack.Duplicate)

	snaps, err := drain(t, archive.Source("dedupe"))
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestArchive_EmptySession(t *testing.T) {
	archive := openArchive(t)

	snaps, err := drain(t, archive.Source("nothing-here"))
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestArchive_Purge(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()

	_, err := archive.Record(ctx, "weather", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)
	require.NoError(t, archive.Purge(ctx, "weather"))

	snaps, err := drain(t, archive.Source("weather"))
	require.NoError(t, err)
	assert.Empty(t, snaps)

	sessions, err := archive.Sessions(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, "weather")
}

func TestArchive_RecordRejectsBadLines(t *testing.T) {
	archive := openArchive(t)
	ctx := context.Background()

	input := `{"messages":[{"type":"ai","content":"ok"}]}
not json
`
	result, err := archive.Record(ctx, "broken", strings.NewReader(input), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, result.Snapshots)
}

func TestArchive_RecordCallbackAborts(t *testing.T) {
	archive := openArchive(t)
	stop := errors.New("stop")

	result, err := archive.Record(context.Background(), "weather", strings.NewReader(weatherRun), func(*trace.Snapshot) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, result.Snapshots)
}

func TestArchive_InvalidSession(t *testing.T) {
	archive := openArchive(t)

	_, err := archive.Record(context.Background(), "bad name", strings.NewReader(weatherRun), nil)
	require.Error(t, err)

	_, err = drain(t, archive.Source("bad.name"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session name")
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		session string
		wantErr bool
	}{
		{name: "simple", session: "weather", wantErr: false},
		{name: "hyphen and underscore", session: "run_2-retry", wantErr: false},
		{name: "empty", session: "", wantErr: true},
		{name: "dot", session: "a.b", wantErr: true},
		{name: "wildcard", session: "a*", wantErr: true},
		{name: "space", session: "a b", wantErr: true},
		{name: "too long", session: strings.Repeat("a", 65), wantErr: true},
		{name: "max length", session: strings.Repeat("a", 64), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.session)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "", want: "stdin"},
		{path: "-", want: "stdin"},
		{path: "runs/weather.jsonl", want: "weather"},
		{path: "/tmp/My Agent Run.jsonl", want: "my-agent-run"},
		{path: "trace.v2.jsonl", want: "trace-v2"},
		{path: "...jsonl", want: "stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := SessionFromPath(tt.path)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, ValidateSession(got))
		})
	}
}

func TestSubjectRoundTrip(t *testing.T) {
	subject := SubjectForSession("weather-demo")
	assert.Equal(t, "agenttrace.weather-demo.snapshot", subject)

	session, ok := sessionFromSubject(subject)
	assert.True(t, ok)
	assert.Equal(t, "weather-demo", session)

	_, ok = sessionFromSubject("other.weather.snapshot")
	assert.False(t, ok)
}

func TestArchive_ReplayStopsOnCancel(t *testing.T) {
	archive := openArchive(t)
	_, err := archive.Record(context.Background(), "weather", strings.NewReader(weatherRun), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		count     int
		streamErr error
	)
	for snap, err := range archive.Source("weather").Stream(ctx, nil, trace.StreamModeValues) {
		if err != nil {
			streamErr = err
			break
		}
		require.NotNil(t, snap)
		count++
		cancel()
	}

	assert.Equal(t, 1, count)
	assert.ErrorIs(t, streamErr, context.Canceled)
}
