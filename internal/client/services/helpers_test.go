package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/client/ai"
	"github.com/dmitrijs2005/sabo/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

type fakeAnalyzer struct {
	available bool
	result    *ai.Result
	err       error
	panicMsg  string
	calls     int
}

func (f *fakeAnalyzer) Available(context.Context) bool { return f.available }

func (f *fakeAnalyzer) Analyze(context.Context, string) (*ai.Result, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

type recordingMirror struct {
	mu   sync.Mutex
	puts [][]models.Item
}

func (m *recordingMirror) FetchDocument(context.Context, string) ([]models.Item, bool, error) {
	return nil, false, nil
}

func (m *recordingMirror) PutDocument(_ context.Context, _ string, items []models.Item) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, items)
	return time.Now(), nil
}

func (m *recordingMirror) WatchDocument(context.Context, string, func([]models.Item)) (func(), error) {
	return func() {}, nil
}

func (m *recordingMirror) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

func (m *recordingMirror) last() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.puts) == 0 {
		return nil
	}
	return m.puts[len(m.puts)-1]
}

type tokenRecorder struct {
	mu     sync.Mutex
	tokens []string
}

func (r *tokenRecorder) SetAccessToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
}

func (r *tokenRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) == 0 {
		return ""
	}
	return r.tokens[len(r.tokens)-1]
}
