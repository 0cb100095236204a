package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/server/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]models.Document)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[userID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", userID, common.ErrNotFound)
	}
	doc.Items = slices.Clone(doc.Items)
	return &doc, nil
}

func (r *MemoryRepository) Put(_ context.Context, userID string, items json.RawMessage, now time.Time) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[userID]
	doc.UserID = userID
	doc.Items = slices.Clone(items)
	doc.UpdatedAt = now
	doc.Version++
	r.docs[userID] = doc

	out := doc
	out.Items = slices.Clone(doc.Items)
	return &out, nil
}
