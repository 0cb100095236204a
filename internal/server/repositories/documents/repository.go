// Package documents stores one mirrored item document per user. Backends
// exist for PostgreSQL, MongoDB, S3-compatible object storage and memory.
package documents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/sabo/internal/server/models"
)

// Repository is implemented by every backend.
type Repository interface {
	// Get returns common.ErrNotFound when the user has no document.
	Get(ctx context.Context, userID string) (*models.Document, error)
	// Put replaces the items of the user's document, creating it when
	// missing. Version starts at 1 and grows by one per Put.
	Put(ctx context.Context, userID string, items json.RawMessage, now time.Time) (*models.Document, error)
}
