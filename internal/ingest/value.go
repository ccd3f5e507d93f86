// Package ingest converts raw agent-engine output into trace snapshots.
// This is the only place where messages are classified into the closed
// set of trace.Message variants.
package ingest

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// toValue converts a JSON value into nil, bool, json.Number, string, []any
// or *orderedmap.OrderedMap[string, any], keeping object key order.
func toValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	}

	if r.IsArray() {
		items := make([]any, 0)
		r.ForEach(func(_, value gjson.Result) bool {
			items = append(items, toValue(value))
			return true
		})
		return items
	}
	if r.IsObject() {
		return toObject(r)
	}
	return r.Raw
}

func toObject(r gjson.Result) *orderedmap.OrderedMap[string, any] {
	obj := orderedmap.New[string, any]()
	r.ForEach(func(key, value gjson.Result) bool {
		obj.Set(key.Str, toValue(value))
		return true
	})
	return obj
}
