package cli

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/client/client"
	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/repositories/items"
	"github.com/dmitrijs2005/sabo/internal/client/services"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

type nopSink struct{}

type fixedModel string

func (m fixedModel) Model(string) string { return string(m) }

func (nopSink) SetAccessToken(string) {}

type fakeMirror struct {
	mu      sync.Mutex
	remote  []models.Item
	puts    [][]models.Item
	watchFn func([]models.Item)
	stopped int
}

func (m *fakeMirror) FetchDocument(context.Context, string) ([]models.Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneAll(m.remote), m.remote != nil, nil
}

func (m *fakeMirror) PutDocument(_ context.Context, _ string, list []models.Item) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, models.CloneAll(list))
	m.remote = models.CloneAll(list)
	return time.Now(), nil
}

func (m *fakeMirror) WatchDocument(_ context.Context, _ string, fn func([]models.Item)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchFn = fn
	return func() {
		m.mu.Lock()
		m.stopped++
		m.watchFn = nil
		m.mu.Unlock()
	}, nil
}

func (m *fakeMirror) emit(list []models.Item) {
	m.mu.Lock()
	fn := m.watchFn
	m.mu.Unlock()
	if fn != nil {
		fn(list)
	}
}

func (m *fakeMirror) lastPut() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.puts) == 0 {
		return nil
	}
	return m.puts[len(m.puts)-1]
}

type testEnv struct {
	app    *App
	out    *bytes.Buffer
	mirror *fakeMirror
	link   *syncLink
}

// newTestApp wires an App like NewApp does, with a fake mirror and rules
// only classification.
func newTestApp(t *testing.T, input ...string) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNop()

	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "sabo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	itemSvc := services.NewItemService(items.NewSQLiteRepository(db, logger), services.NewOrchestrator(nil, logger), logger)
	auth := services.NewAuthService(db, nopSink{}, logger)
	mirror := &fakeMirror{}
	link := newSyncLink(ctx, itemSvc, mirror, time.Second, logger)
	unsubscribe := auth.Subscribe(link.handle)
	t.Cleanup(func() {
		unsubscribe()
		link.close()
	})

	out := &bytes.Buffer{}
	app := &App{
		items:    itemSvc,
		keys:     services.NewAPIKeyService(db, ""),
		auth:     auth,
		sync:     link,
		analyzer: fixedModel("gemini-test"),
		logger:   logger,
		in:       bufio.NewScanner(strings.NewReader(strings.Join(input, "\n"))),
		out:      out,
		now:      time.Now,
	}
	return &testEnv{app: app, out: out, mirror: mirror, link: link}
}

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func stubSecret(t *testing.T, value string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(value), nil }
	t.Cleanup(func() { readPassword = orig })
}
