// Package services holds the mirror server's document logic between the
// gRPC handlers and the storage backend.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/logging"
	"github.com/dmitrijs2005/sabo/internal/server/broker"
	"github.com/dmitrijs2005/sabo/internal/server/metrics"
	"github.com/dmitrijs2005/sabo/internal/server/models"
	"github.com/dmitrijs2005/sabo/internal/server/repositories/documents"
)

// DocumentService reads through a short-lived cache, stores new versions
// and announces them to watchers. A cached document is only ever replaced
// by a higher version.
type DocumentService struct {
	repo    documents.Repository
	broker  broker.Broker
	cacheMu sync.Mutex
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  logging.Logger
	now     func() time.Time
}

// NewDocumentService caches documents for ttl. m may be nil.
func NewDocumentService(repo documents.Repository, b broker.Broker, ttl time.Duration, m *metrics.Metrics, logger logging.Logger) *DocumentService {
	return &DocumentService{
		repo:    repo,
		broker:  b,
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
		logger:  logger.With("module", "documents"),
		now:     time.Now,
	}
}

// ValidateItems accepts only a JSON array.
func ValidateItems(items []byte) error {
	trimmed := bytes.TrimSpace(items)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: items must be a JSON array", common.ErrInvalidDocument)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	return nil
}

// Get returns common.ErrNotFound when userID has no document yet.
func (s *DocumentService) Get(ctx context.Context, userID string) (*models.Document, error) {
	if v, ok := s.cache.Get(userID); ok {
		s.metrics.CacheHit(true)
		doc := *v.(*models.Document)
		return &doc, nil
	}
	s.metrics.CacheHit(false)

	doc, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.remember(userID, doc)
	cp := *doc
	return &cp, nil
}

// remember caches doc unless a newer version is already cached.
func (s *DocumentService) remember(userID string, doc *models.Document) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if v, ok := s.cache.Get(userID); ok && v.(*models.Document).Version >= doc.Version {
		return
	}
	s.cache.Set(userID, doc, cache.DefaultExpiration)
}

func (s *DocumentService) forget(userID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Delete(userID)
}

// Observe applies a change stored by another server instance to the cache.
func (s *DocumentService) Observe(ev broker.Event) {
	s.remember(ev.UserID, &models.Document{
		UserID:    ev.UserID,
		Items:     ev.Items,
		UpdatedAt: ev.UpdatedAt,
		Version:   ev.Version,
	})
}

// Put stores items as the next version of userID's document and publishes
// it. A failed publish is logged; the write still succeeds.
func (s *DocumentService) Put(ctx context.Context, userID string, items []byte) (*models.Document, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	items = bytes.TrimSpace(items)

	doc, err := s.repo.Put(ctx, userID, items, s.now().UTC())
	if err != nil {
		s.forget(userID)
		return nil, fmt.Errorf("store document: %w", err)
	}
	s.remember(userID, doc)
	s.metrics.ObservePut(len(items))
	s.logger.Info(ctx, "document stored", "user", userID, "version", doc.Version, "bytes", len(items))

	err = s.broker.Publish(ctx, broker.Event{
		UserID:    userID,
		Items:     doc.Items,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn(ctx, "publish document change failed", "user", userID, "error", err)
	}

	cp := *doc
	return &cp, nil
}

// Watch subscribes to userID's changes. Call cancel when done.
func (s *DocumentService) Watch(userID string) (<-chan broker.Event, func()) {
	return s.broker.Subscribe(userID)
}
