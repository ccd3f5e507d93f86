package trace

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is matched by every MalformedSnapshotError.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// MalformedSnapshotError reports a snapshot without a usable "messages" sequence.
type MalformedSnapshotError struct {
	Reason string
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed snapshot: %s", e.Reason)
}

func (e *MalformedSnapshotError) Unwrap() error {
	return ErrMalformedSnapshot
}
