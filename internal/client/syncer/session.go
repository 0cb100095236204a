package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// Mirror is the remote per-user document store.
type Mirror interface {
	// FetchDocument returns the stored collection and whether a document
	// exists at all.
	FetchDocument(ctx context.Context, userID string) ([]models.Item, bool, error)
	// PutDocument replaces the stored collection and returns the time the
	// mirror recorded for the write.
	PutDocument(ctx context.Context, userID string, items []models.Item) (time.Time, error)
	// WatchDocument calls fn with every new remote snapshot until the
	// returned stop function is called or ctx ends.
	WatchDocument(ctx context.Context, userID string, fn func([]models.Item)) (stop func(), err error)
}

var ErrSessionClosed = errors.New("sync session closed")

type pushJob struct {
	items []models.Item
	ack   chan struct{}
}

// Session is the sync state of one signed-in user. A nil *Session is a
// valid, disabled session.
type Session struct {
	userID  string
	mirror  Mirror
	logger  logging.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	signal chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	queue      []pushJob
	closed     bool
	lastPushAt time.Time

	closeOnce sync.Once
}

// NewSession starts the push worker. timeout bounds each remote call; zero
// means no bound beyond the caller's context.
func NewSession(userID string, mirror Mirror, logger logging.Logger, timeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		userID:  userID,
		mirror:  mirror,
		logger:  logger.With("module", "syncer", "user", userID),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// Enabled reports whether local mutations should be mirrored.
func (s *Session) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// LastPushAt is the mirror timestamp of the last successful push.
func (s *Session) LastPushAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPushAt
}

// Push enqueues a snapshot of items and returns immediately. Failures are
// logged by the worker and not retried.
func (s *Session) Push(items []models.Item) {
	if !s.Enabled() {
		return
	}
	s.enqueue(pushJob{items: models.CloneAll(items)})
}

// Flush waits until everything enqueued before the call has been handled.
func (s *Session) Flush(ctx context.Context) error {
	if s == nil {
		return ErrSessionClosed
	}
	ack := make(chan struct{})
	if !s.enqueue(pushJob{ack: ack}) {
		return ErrSessionClosed
	}
	select {
	case <-ack:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker. Queued snapshots that were not sent yet are
// dropped and an in-flight push is cancelled.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		dropped := 0
		for _, j := range s.queue {
			if j.ack == nil {
				dropped++
			}
		}
		s.mu.Unlock()
		s.cancel()
		<-s.done
		if dropped > 0 {
			s.logger.Info(context.Background(), "sync session closed with pending pushes", "dropped", dropped)
		}
	})
}

func (s *Session) enqueue(j pushJob) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, j)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

func (s *Session) next() (pushJob, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.queue = nil
			s.mu.Unlock()
			return pushJob{}, false
		}
		if len(s.queue) > 0 {
			j := s.queue[0]
			s.queue[0] = pushJob{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return j, true
		}
		s.mu.Unlock()

		select {
		case <-s.signal:
		case <-s.ctx.Done():
		}
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		j, ok := s.next()
		if !ok {
			return
		}
		if j.ack != nil {
			close(j.ack)
			continue
		}
		s.push(j.items)
	}
}

func (s *Session) push(items []models.Item) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	at, err := s.mirror.PutDocument(ctx, s.userID, items)
	if err != nil {
		s.logger.Warn(ctx, "push to mirror failed", "items", len(items), "error", err)
		return
	}
	s.mu.Lock()
	s.lastPushAt = at
	s.mu.Unlock()
	s.logger.Debug(ctx, "pushed collection", "items", len(items), "updated_at", at)
}

// callContext derives a context for a single remote call made on behalf of
// the session.
func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
