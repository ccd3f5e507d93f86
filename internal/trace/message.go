package trace

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Message is one entry of a snapshot's "messages" sequence.
// The set of implementations is closed: AIToolCallMessage, AIResponseMessage,
// ToolResultMessage and OtherMessage. Variants are built once when raw engine
// output is ingested (see package ingest).
type Message interface {
	// RoleTag returns the raw role/type tag carried by the message, or "" if none.
	RoleTag() string
	// Kind returns the variant name.
	Kind() string
	// Body returns the message content.
	Body() any

	message()
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args *orderedmap.OrderedMap[string, any]
}

// AIToolCallMessage is an AI-originated message carrying at least one tool call.
type AIToolCallMessage struct {
	Role      string
	Content   any
	ToolCalls []ToolCall
}

// AIResponseMessage is an AI-originated message with no tool calls.
type AIResponseMessage struct {
	Role    string
	Content any
}

// ToolResultMessage carries the output of a tool execution.
type ToolResultMessage struct {
	Role    string
	Name    string // tool that produced the result, "" when absent
	Content any
}

// OtherMessage is anything else: human, system, or unrecognized messages.
type OtherMessage struct {
	Role    string
	Content any
}

func (m AIToolCallMessage) RoleTag() string { return m.Role }
func (m AIToolCallMessage) Kind() string    { return "AIToolCallMessage" }
func (m AIToolCallMessage) Body() any       { return m.Content }
func (AIToolCallMessage) message()          {}

func (m AIResponseMessage) RoleTag() string { return m.Role }
func (m AIResponseMessage) Kind() string    { return "AIResponseMessage" }
func (m AIResponseMessage) Body() any       { return m.Content }
func (AIResponseMessage) message()          {}

func (m ToolResultMessage) RoleTag() string { return m.Role }
func (m ToolResultMessage) Kind() string    { return "ToolResultMessage" }
func (m ToolResultMessage) Body() any       { return m.Content }
func (ToolResultMessage) message()          {}

func (m OtherMessage) RoleTag() string { return m.Role }
func (m OtherMessage) Kind() string    { return "OtherMessage" }
func (m OtherMessage) Body() any       { return m.Content }
func (OtherMessage) message()          {}

// ResolveRole returns the role tag to display for m, falling back to "unknown".
func ResolveRole(m Message) string {
	if role := m.RoleTag(); role != "" {
		return role
	}
	return "unknown"
}

// NewArgs builds an ordered argument map from alternating key/value pairs.
// Odd trailing keys are ignored.
func NewArgs(kv ...any) *orderedmap.OrderedMap[string, any] {
	args := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		args.Set(key, kv[i+1])
	}
	return args
}

// Normalize dereferences pointer variants so callers can match on values.
// A nil pointer variant yields nil.
func Normalize(m Message) Message {
	switch v := m.(type) {
	case *AIToolCallMessage:
		if v == nil {
			return nil
		}
		return *v
	case *AIResponseMessage:
		if v == nil {
			return nil
		}
		return *v
	case *ToolResultMessage:
		if v == nil {
			return nil
		}
		return *v
	case *OtherMessage:
		if v == nil {
			return nil
		}
		return *v
	}
	return m
}
