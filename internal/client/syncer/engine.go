package syncer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// Store is the local collection. Update must run fn and persist its result
// atomically with respect to other local writers.
type Store interface {
	Update(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error)
}

type Engine struct {
	store  Store
	logger logging.Logger
}

func NewEngine(store Store, logger logging.Logger) *Engine {
	return &Engine{store: store, logger: logger.With("module", "syncer")}
}

// PullAndMerge fetches the remote collection, merges it into the local one,
// stores the result and pushes it back. A missing remote document counts as
// an empty collection.
func (e *Engine) PullAndMerge(ctx context.Context, sess *Session) ([]models.Item, error) {
	if !sess.Enabled() {
		return nil, ErrSessionClosed
	}

	callCtx, cancel := sess.callContext(ctx)
	remote, found, err := sess.mirror.FetchDocument(callCtx, sess.userID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch remote collection: %w", err)
	}
	if !found {
		e.logger.Info(ctx, "no remote document yet", "user", sess.userID)
	}

	merged, err := e.store.Update(ctx, func(local []models.Item) ([]models.Item, error) {
		return Merge(local, remote), nil
	})
	if err != nil {
		return nil, fmt.Errorf("store merged collection: %w", err)
	}

	e.logger.Info(ctx, "pulled and merged", "user", sess.userID, "remote", len(remote), "merged", len(merged))
	sess.Push(merged)
	return merged, nil
}

// Watch merges every remote snapshot into the local collection until the
// returned stop function is called. The merged result is pushed back only
// when it differs from the snapshot. onChange, when non-nil, receives the
// stored collection after each merge.
func (e *Engine) Watch(ctx context.Context, sess *Session, onChange func([]models.Item)) (func(), error) {
	if !sess.Enabled() {
		return nil, ErrSessionClosed
	}
	stop, err := sess.mirror.WatchDocument(ctx, sess.userID, func(remote []models.Item) {
		if !sess.Enabled() {
			return
		}
		merged, err := e.store.Update(ctx, func(local []models.Item) ([]models.Item, error) {
			return Merge(local, remote), nil
		})
		if err != nil {
			e.logger.Warn(ctx, "apply remote snapshot failed", "user", sess.userID, "error", err)
			return
		}
		if !SameSet(merged, remote) {
			sess.Push(merged)
		}
		if onChange != nil {
			onChange(merged)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("watch remote collection: %w", err)
	}
	return stop, nil
}
