package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/query"
	"github.com/dmitrijs2005/sabo/internal/client/repositories/items"
	"github.com/dmitrijs2005/sabo/internal/client/syncer"
	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// ItemService is the single local writer of the item collection.
//
// Mutations address an item by its id or by a unique id prefix. Every
// mutation is one read-modify-write transaction; when a sync session is
// attached the stored collection is then pushed to the mirror.
type ItemService interface {
	Capture(ctx context.Context, text string) (models.Item, error)
	Complete(ctx context.Context, ref string) (models.Item, error)
	Uncomplete(ctx context.Context, ref string) (models.Item, error)
	Defer(ctx context.Context, ref string) (models.Item, error)
	SetToday(ctx context.Context, ref string) (models.Item, error)
	SetScope(ctx context.Context, ref string, scope models.Scope) (models.Item, error)
	Delete(ctx context.Context, ref string) (models.Item, error)
	ClearAll(ctx context.Context) error

	Get(ctx context.Context, ref string) (models.Item, error)
	// List returns the matching items newest first.
	List(ctx context.Context, f query.Filter) ([]models.Item, error)
	Counts(ctx context.Context) (query.Counts, error)
	Next(ctx context.Context) (models.Item, bool, error)
	Review(ctx context.Context, date time.Time) ([]models.Item, query.Stats, error)

	// Update applies fn under the writer lock without pushing. It lets the
	// sync engine store merged collections.
	Update(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error)

	AttachSession(sess *syncer.Session)
	Session() *syncer.Session
}

type itemService struct {
	repo   items.Repository
	orch   *Orchestrator
	logger logging.Logger
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	session *syncer.Session
}

func NewItemService(repo items.Repository, orch *Orchestrator, logger logging.Logger) ItemService {
	return &itemService{
		repo:   repo,
		orch:   orch,
		logger: logger.With("module", "items"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *itemService) AttachSession(sess *syncer.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

func (s *itemService) Session() *syncer.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Capture classifies text and stores the new item. Classification happens
// outside the writer lock since it may wait on the network.
func (s *itemService) Capture(ctx context.Context, text string) (models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return models.Item{}, common.ErrEmptyText
	}
	item := s.orch.CreateItem(ctx, text).WithID(s.newID())

	if err := s.mutate(ctx, func(cur []models.Item) ([]models.Item, error) {
		return append(cur, item), nil
	}); err != nil {
		return models.Item{}, err
	}
	s.logger.Info(ctx, "captured item", "id", item.ID, "category", item.Category, "scope", item.Scope, "ai", item.AIProcessed)
	return item, nil
}

func (s *itemService) Complete(ctx context.Context, ref string) (models.Item, error) {
	return s.modify(ctx, ref, func(it *models.Item) { it.Complete(s.now().UTC()) })
}

func (s *itemService) Uncomplete(ctx context.Context, ref string) (models.Item, error) {
	return s.modify(ctx, ref, func(it *models.Item) { it.Reopen() })
}

func (s *itemService) Defer(ctx context.Context, ref string) (models.Item, error) {
	return s.SetScope(ctx, ref, models.ScopeSomeday)
}

func (s *itemService) SetToday(ctx context.Context, ref string) (models.Item, error) {
	return s.SetScope(ctx, ref, models.ScopeToday)
}

func (s *itemService) SetScope(ctx context.Context, ref string, scope models.Scope) (models.Item, error) {
	if !scope.Valid() {
		return models.Item{}, fmt.Errorf("invalid scope %q", scope)
	}
	return s.modify(ctx, ref, func(it *models.Item) { it.Scope = scope })
}

func (s *itemService) Delete(ctx context.Context, ref string) (models.Item, error) {
	var removed models.Item
	err := s.mutate(ctx, func(cur []models.Item) ([]models.Item, error) {
		n, err := find(cur, ref)
		if err != nil {
			return nil, err
		}
		removed = cur[n]
		return slices.Delete(cur, n, n+1), nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return removed, nil
}

func (s *itemService) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, func([]models.Item) ([]models.Item, error) {
		return []models.Item{}, nil
	})
}

func (s *itemService) Get(ctx context.Context, ref string) (models.Item, error) {
	all, err := s.repo.ReadAll(ctx)
	if err != nil {
		return models.Item{}, err
	}
	n, err := find(all, ref)
	if err != nil {
		return models.Item{}, err
	}
	return all[n], nil
}

func (s *itemService) List(ctx context.Context, f query.Filter) ([]models.Item, error) {
	all, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.SortByCreatedDesc(f.Apply(all)), nil
}

func (s *itemService) Counts(ctx context.Context) (query.Counts, error) {
	all, err := s.repo.ReadAll(ctx)
	if err != nil {
		return query.Counts{}, err
	}
	return query.CountAll(all), nil
}

func (s *itemService) Next(ctx context.Context) (models.Item, bool, error) {
	all, err := s.repo.ReadAll(ctx)
	if err != nil {
		return models.Item{}, false, err
	}
	it, ok := query.NextTask(all)
	return it, ok, nil
}

func (s *itemService) Review(ctx context.Context, date time.Time) ([]models.Item, query.Stats, error) {
	all, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, query.Stats{}, err
	}
	done := query.CompletedOn(all, date)
	slices.SortStableFunc(done, func(a, b models.Item) int {
		return b.CompletionTime().Compare(a.CompletionTime())
	})
	return done, query.StatsFor(all, date), nil
}

func (s *itemService) Update(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Update(ctx, fn)
}

func (s *itemService) modify(ctx context.Context, ref string, change func(*models.Item)) (models.Item, error) {
	var changed models.Item
	err := s.mutate(ctx, func(cur []models.Item) ([]models.Item, error) {
		n, err := find(cur, ref)
		if err != nil {
			return nil, err
		}
		change(&cur[n])
		changed = cur[n]
		return cur, nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return changed, nil
}

// mutate stores fn's result and mirrors it when a session is open. A
// failed push never fails the local write.
func (s *itemService) mutate(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) error {
	s.mu.Lock()
	stored, err := s.repo.Update(ctx, fn)
	sess := s.session
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if sess.Enabled() {
		sess.Push(stored)
	}
	return nil
}

// find resolves ref as an exact id, then as a unique id prefix.
func find(all []models.Item, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, common.ErrNotFound
	}
	if n := slices.IndexFunc(all, func(it models.Item) bool { return it.ID == ref }); n >= 0 {
		return n, nil
	}
	match := -1
	for n, it := range all {
		if !strings.HasPrefix(it.ID, ref) {
			continue
		}
		if match >= 0 {
			return -1, fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrNotFound, ref)
		}
		match = n
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %q", common.ErrNotFound, ref)
	}
	return match, nil
}
