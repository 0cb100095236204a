package cli

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/services"
	"github.com/dmitrijs2005/sabo/internal/client/syncer"
	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// syncLink follows sign-in events: it opens a sync session for the signed
// in user, pulls once and keeps a watch running until sign-out.
type syncLink struct {
	ctx      context.Context
	items    services.ItemService
	engine   *syncer.Engine
	mirror   syncer.Mirror
	timeout  time.Duration
	logger   logging.Logger
	onRemote func([]models.Item)

	mu        sync.Mutex
	stopWatch func()
}

func newSyncLink(ctx context.Context, items services.ItemService, mirror syncer.Mirror, timeout time.Duration, logger logging.Logger) *syncLink {
	return &syncLink{
		ctx:     ctx,
		items:   items,
		engine:  syncer.NewEngine(items, logger),
		mirror:  mirror,
		timeout: timeout,
		logger:  logger.With("module", "synclink"),
	}
}

func (l *syncLink) handle(ev services.AuthEvent) {
	switch ev.Kind {
	case services.SignedIn:
		l.open(ev.UserID)
	case services.SignedOut:
		l.close()
	}
}

func (l *syncLink) open(userID string) {
	l.close()

	sess := syncer.NewSession(userID, l.mirror, l.logger, l.timeout)
	l.items.AttachSession(sess)

	// A failed pull leaves local items untouched; "sync" retries it.
	if _, err := l.engine.PullAndMerge(l.ctx, sess); err != nil {
		l.logger.Warn(l.ctx, "initial sync failed", "user", userID, "error", err)
	}

	stop, err := l.engine.Watch(l.ctx, sess, l.onRemote)
	if err != nil {
		l.logger.Warn(l.ctx, "watch not started", "user", userID, "error", err)
		return
	}
	l.mu.Lock()
	l.stopWatch = stop
	l.mu.Unlock()
}

func (l *syncLink) close() {
	l.mu.Lock()
	stop := l.stopWatch
	l.stopWatch = nil
	l.mu.Unlock()
	if stop != nil {
		stop()
	}

	sess := l.items.Session()
	l.items.AttachSession(nil)
	sess.Close()
}

// SyncNow pulls, merges and waits until the merged collection was pushed.
func (l *syncLink) SyncNow(ctx context.Context) ([]models.Item, error) {
	sess := l.items.Session()
	if !sess.Enabled() {
		return nil, common.ErrNotSignedIn
	}
	merged, err := l.engine.PullAndMerge(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := sess.Flush(ctx); err != nil {
		return nil, err
	}
	return merged, nil
}

// LastPushAt is when the mirror last accepted an upload in this session.
func (l *syncLink) LastPushAt() time.Time {
	return l.items.Session().LastPushAt()
}
