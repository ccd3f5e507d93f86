package ingest

import (
	"errors"
	"fmt"

	"github.com/mark3labs/agenttrace/internal/trace"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidJSON is returned for input that is not valid JSON.
var ErrInvalidJSON = errors.New("invalid json")

// classRoles maps serialized message class names to their role tag.
var classRoles = map[string]string{
	"AIMessage":          "ai",
	"AIMessageChunk":     "ai",
	"ToolMessage":        "tool",
	"ToolMessageChunk":   "tool",
	"HumanMessage":       "human",
	"HumanMessageChunk":  "human",
	"SystemMessage":      "system",
	"SystemMessageChunk": "system",
	"ChatMessage":        "chat",
	"FunctionMessage":    "function",
}

// DecodeMessage decodes one raw message object.
//
// Accepted shapes:
//
//	{"type":"ai","content":"...","tool_calls":[{"name":"search","args":{...},"id":"..."}]}
//	{"role":"assistant","content":"...","tool_calls":[{"function":{"name":"search","arguments":"{...}"}}]}
//	{"role":"tool","name":"search","content":"..."}
//	{"lc":1,"type":"constructor","id":["langchain","schema","messages","AIMessage"],"kwargs":{...}}
func DecodeMessage(raw []byte) (trace.Message, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return nil, fmt.Errorf("message must be a JSON object")
	}
	return decodeMessage(r)
}

func decodeMessage(r gjson.Result) (trace.Message, error) {
	fields := r
	class := ""
	role := ""

	if r.Get("lc").Exists() && r.Get("type").String() == "constructor" {
		ids := r.Get("id").Array()
		if len(ids) > 0 {
			class = ids[len(ids)-1].String()
		}
		fields = r.Get("kwargs")
		role = classRoles[class]
	}

	if role == "" {
		role = fields.Get("type").String()
	}
	if role == "" {
		role = fields.Get("role").String()
	}
	if mapped, ok := classRoles[role]; ok {
		class = role
		role = mapped
	}

	calls, err := decodeToolCalls(fields)
	if err != nil {
		return nil, err
	}

	var content any
	if c := fields.Get("content"); c.Exists() {
		content = toValue(c)
	}

	ai := role == "ai" || role == "assistant"
	tool := role == "tool" || class == "ToolMessage" || class == "ToolMessageChunk"

	switch {
	case ai && len(calls) > 0:
		return trace.AIToolCallMessage{Role: role, Content: content, ToolCalls: calls}, nil
	case tool:
		return trace.ToolResultMessage{Role: role, Name: fields.Get("name").String(), Content: content}, nil
	case ai:
		return trace.AIResponseMessage{Role: role, Content: content}, nil
	default:
		return trace.OtherMessage{Role: role, Content: content}, nil
	}
}

// decodeToolCalls reads "tool_calls", falling back to the legacy
// "additional_kwargs.tool_calls" location.
func decodeToolCalls(fields gjson.Result) ([]trace.ToolCall, error) {
	list := fields.Get("tool_calls")
	if !list.IsArray() || len(list.Array()) == 0 {
		list = fields.Get("additional_kwargs.tool_calls")
	}
	if !list.IsArray() {
		return nil, nil
	}

	var calls []trace.ToolCall
	for i, item := range list.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("tool call %d: not a JSON object", i)
		}

		call := trace.ToolCall{
			ID:   item.Get("id").String(),
			Name: item.Get("name").String(),
		}
		if call.Name == "" {
			call.Name = item.Get("function.name").String()
		}

		args := item.Get("args")
		if !args.Exists() {
			args = item.Get("function.arguments")
		}
		call.Args = decodeArgs(args)
		calls = append(calls, call)
	}
	return calls, nil
}

// decodeArgs accepts an argument object or a string holding one.
func decodeArgs(args gjson.Result) *orderedmap.OrderedMap[string, any] {
	if args.Type == gjson.String && gjson.Valid(args.Str) {
		args = gjson.Parse(args.Str)
	}
	if !args.IsObject() {
		return nil
	}
	return toObject(args)
}
