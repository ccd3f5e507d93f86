package nats

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding archived snapshots.
	StreamName = "agenttrace_snapshots"

	// HeaderRun identifies the recording a snapshot belongs to.
	HeaderRun = "Agenttrace-Run"

	maxSessionLen = 64
)

// SubjectForSession returns the subject snapshots of a session are stored under.
// Example: "agenttrace.weather-demo.snapshot"
func SubjectForSession(session string) string {
	return fmt.Sprintf("agenttrace.%s.snapshot", session)
}

// sessionFromSubject is the inverse of SubjectForSession.
func sessionFromSubject(subject string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, "agenttrace.")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ".snapshot")
}

// SetupStream creates or updates the snapshot stream with 30-day retention.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"agenttrace.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
}

// ValidateSession checks that name is usable as a subject token:
// alphanumeric, hyphens and underscores, at most 64 characters.
func ValidateSession(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if len(name) > maxSessionLen {
		return fmt.Errorf("session name too long (max %d characters): %s", maxSessionLen, name)
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return fmt.Errorf("invalid session name: %s (use only alphanumeric, hyphens, underscores)", name)
		}
	}
	return nil
}

// SessionFromPath derives a session name from a recording's file name.
// Standard input ("" or "-") maps to "stdin".
func SessionFromPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		return "stdin"
	}
	if len(name) > maxSessionLen {
		name = strings.TrimRight(name[:maxSessionLen], "-")
	}
	return name
}
