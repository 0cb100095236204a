// Package models holds the server-side document model.
package models

import (
	"encoding/json"
	"time"
)

// Document is one user's mirrored item collection. Items is the JSON array
// exactly as the client sent it; the server never interprets single items.
type Document struct {
	UserID    string          `json:"userId"`
	Items     json.RawMessage `json:"items"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Version   int64           `json:"version"`
}
