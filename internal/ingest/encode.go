package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/agenttrace/internal/trace"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EncodeMessage converts a message back into its plain dict form.
func EncodeMessage(m trace.Message) *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any]()
	m = trace.Normalize(m)
	if m == nil {
		return out
	}

	switch msg := m.(type) {
	case trace.AIToolCallMessage:
		out.Set("type", roleOr(msg.Role, "ai"))
		out.Set("content", contentOrEmpty(msg.Content))
		calls := make([]any, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			c := orderedmap.New[string, any]()
			c.Set("name", call.Name)
			if call.Args != nil {
				c.Set("args", call.Args)
			} else {
				c.Set("args", orderedmap.New[string, any]())
			}
			if call.ID != "" {
				c.Set("id", call.ID)
			}
			calls = append(calls, c)
		}
		out.Set("tool_calls", calls)
	case trace.AIResponseMessage:
		out.Set("type", roleOr(msg.Role, "ai"))
		out.Set("content", contentOrEmpty(msg.Content))
	case trace.ToolResultMessage:
		out.Set("type", roleOr(msg.Role, "tool"))
		if msg.Name != "" {
			out.Set("name", msg.Name)
		}
		out.Set("content", contentOrEmpty(msg.Content))
	default:
		out.Set("type", roleOr(m.RoleTag(), "human"))
		out.Set("content", contentOrEmpty(m.Body()))
	}
	return out
}

// EncodeInput serializes the initial agent input handed to an external
// engine: {"input": {"messages": [...], ...}, "stream_mode": "values"}.
func EncodeInput(input *trace.Snapshot, mode trace.StreamMode) ([]byte, error) {
	state := orderedmap.New[string, any]()
	if input != nil {
		for _, key := range input.Keys() {
			value, _ := input.Get(key)
			if messages, ok := value.([]trace.Message); ok {
				encoded := make([]any, 0, len(messages))
				for _, m := range messages {
					encoded = append(encoded, EncodeMessage(m))
				}
				value = encoded
			}
			state.Set(key, value)
		}
	}

	payload := orderedmap.New[string, any]()
	payload.Set("input", state)
	payload.Set("stream_mode", string(mode))

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding agent input: %w", err)
	}
	return data, nil
}

func roleOr(role, fallback string) string {
	if role != "" {
		return role
	}
	return fallback
}

func contentOrEmpty(content any) any {
	if content == nil {
		return ""
	}
	return content
}
