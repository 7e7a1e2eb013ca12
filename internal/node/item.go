package node

import (
	"encoding/json"
	"fmt"
)

// Item is one entry of the host's item array.
type Item struct {
	JSON map[string]any `json:"json"`
}

// NewItem wraps an object as an item.
func NewItem(v map[string]any) Item {
	if v == nil {
		v = map[string]any{}
	}
	return Item{JSON: v}
}

// ErrorItem is the item emitted in place of a failed item when failures are
// tolerated.
func ErrorItem(err error) Item {
	return Item{JSON: map[string]any{"error": err.Error()}}
}

// ItemsFromValue converts a decoded JSON response into items. Arrays are
// flattened into one item per entry, objects become a single item and
// scalars are wrapped under "value".
func ItemsFromValue(v any) []Item {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		items := make([]Item, 0, len(t))
		for _, entry := range t {
			items = append(items, itemFromEntry(entry))
		}
		return items
	case []map[string]any:
		items := make([]Item, 0, len(t))
		for _, entry := range t {
			items = append(items, NewItem(entry))
		}
		return items
	default:
		return []Item{itemFromEntry(t)}
	}
}

func itemFromEntry(v any) Item {
	if m, ok := v.(map[string]any); ok {
		return NewItem(m)
	}
	return Item{JSON: map[string]any{"value": v}}
}

// ParseItems decodes a JSON document holding either an array of items in
// {json: ...} form, or a plain array/object of JSON values.
func ParseItems(data []byte) ([]Item, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	entries, ok := raw.([]any)
	if !ok {
		entries = []any{raw}
	}

	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is not an object", i)
		}
		if inner, ok := obj["json"].(map[string]any); ok && len(obj) == 1 {
			obj = inner
		}
		items = append(items, NewItem(obj))
	}
	return items, nil
}
