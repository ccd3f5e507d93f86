package trace

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MessagesKey is the state key holding the conversation messages.
const MessagesKey = "messages"

// Snapshot is the full agent state after one execution step.
// Keys keep the order in which the producer emitted them.
type Snapshot struct {
	values *orderedmap.OrderedMap[string, any]
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: orderedmap.New[string, any]()}
}

// NewMessagesSnapshot returns a snapshot holding only the given messages.
func NewMessagesSnapshot(messages ...Message) *Snapshot {
	s := NewSnapshot()
	s.Set(MessagesKey, messages)
	return s
}

// Set stores value under key. Setting an existing key keeps its position.
func (s *Snapshot) Set(key string, value any) {
	s.values.Set(key, value)
}

// Get returns the value stored under key.
func (s *Snapshot) Get(key string) (any, bool) {
	return s.values.Get(key)
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return s.values.Len()
}

// Keys returns the state keys in order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Messages returns the snapshot's message sequence.
// It fails with a MalformedSnapshotError if the key is missing, holds
// something other than messages, or is empty.
func (s *Snapshot) Messages() ([]Message, error) {
	raw, ok := s.values.Get(MessagesKey)
	if !ok {
		return nil, &MalformedSnapshotError{Reason: fmt.Sprintf("missing %q key", MessagesKey)}
	}
	messages, ok := raw.([]Message)
	if !ok {
		return nil, &MalformedSnapshotError{Reason: fmt.Sprintf("%q is %T, not a message sequence", MessagesKey, raw)}
	}
	if len(messages) == 0 {
		return nil, &MalformedSnapshotError{Reason: fmt.Sprintf("%q is empty", MessagesKey)}
	}
	return messages, nil
}

// Latest returns the last message of the snapshot.
func (s *Snapshot) Latest() (Message, error) {
	messages, err := s.Messages()
	if err != nil {
		return nil, err
	}
	return messages[len(messages)-1], nil
}
