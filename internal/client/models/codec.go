package models

import "encoding/json"

// EncodeItems renders a collection as a JSON array; nil becomes "[]".
// The same encoding is used for the local store and the mirror payload.
func EncodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// DecodeItems parses a JSON array of items and normalizes each one.
func DecodeItems(raw []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	for n := range items {
		items[n].Normalize()
	}
	return items, nil
}
