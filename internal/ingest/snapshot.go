package ingest

import (
	"fmt"

	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/tidwall/gjson"
)

// DecodeSnapshot decodes one "values" stream chunk: a JSON object mapping
// state keys to values. A ["values", {...}] tuple, as emitted when several
// stream modes are combined, is unwrapped.
//
// A missing or empty "messages" key is not an error here; the printer
// reports it when the snapshot is rendered.
func DecodeSnapshot(raw []byte) (*trace.Snapshot, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	r := gjson.ParseBytes(raw)

	if r.IsArray() {
		parts := r.Array()
		if len(parts) != 2 || parts[0].Type != gjson.String {
			return nil, fmt.Errorf("snapshot must be a JSON object or a [mode, chunk] pair")
		}
		if mode := parts[0].Str; mode != string(trace.StreamModeValues) {
			return nil, fmt.Errorf("unsupported stream mode %q", mode)
		}
		r = parts[1]
	}
	if !r.IsObject() {
		return nil, fmt.Errorf("snapshot must be a JSON object")
	}

	snap := trace.NewSnapshot()
	var decodeErr error
	r.ForEach(func(key, value gjson.Result) bool {
		if key.Str == trace.MessagesKey && value.IsArray() {
			messages, err := decodeMessages(value)
			if err != nil {
				decodeErr = err
				return false
			}
			snap.Set(key.Str, messages)
			return true
		}
		snap.Set(key.Str, toValue(value))
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return snap, nil
}

func decodeMessages(list gjson.Result) ([]trace.Message, error) {
	items := list.Array()
	messages := make([]trace.Message, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("message %d: not a JSON object", i)
		}
		m, err := decodeMessage(item)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
