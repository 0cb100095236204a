package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/ai"
	"github.com/dmitrijs2005/sabo/internal/client/client"
	"github.com/dmitrijs2005/sabo/internal/client/config"
	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/repositories/items"
	"github.com/dmitrijs2005/sabo/internal/client/services"
	"github.com/dmitrijs2005/sabo/internal/filex"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// syncTrigger runs an explicit sync on the current session.
type syncTrigger interface {
	SyncNow(ctx context.Context) ([]models.Item, error)
	LastPushAt() time.Time
}

// modelReporter names the AI model used with a given key.
type modelReporter interface {
	Model(key string) string
}

type App struct {
	items    services.ItemService
	keys     services.APIKeyService
	auth     services.AuthService
	sync     syncTrigger
	analyzer modelReporter
	logger   logging.Logger

	in  *bufio.Scanner
	out io.Writer
	now func() time.Time

	closers []func()
}

// NewApp opens the local database and wires every client component. ctx
// bounds the lifetime of background watches.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	envKey, err := services.EnvAPIKey(cfg.EnvFile)
	if err != nil {
		logger.Warn(ctx, "ignoring env file", "path", cfg.EnvFile, "error", err)
	}
	keys := services.NewAPIKeyService(db, envKey)

	analyzer := ai.NewGeminiAnalyzer(ai.GeminiConfig{
		Endpoint:       cfg.AIEndpoint,
		Model:          cfg.AIModel,
		FallbackModels: cfg.AIFallbackModels,
		Timeout:        cfg.AITimeout,
	}, keys, logger)
	orch := services.NewOrchestrator(analyzer, logger)
	itemSvc := services.NewItemService(items.NewSQLiteRepository(db, logger), orch, logger)

	mirror, err := client.NewMirrorClient(cfg.ServerEndpointAddr, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create mirror client: %w", err)
	}
	auth := services.NewAuthService(db, mirror, logger)

	link := newSyncLink(ctx, itemSvc, mirror, cfg.RemoteTimeout, logger)
	link.onRemote = func(all []models.Item) {
		logger.Debug(ctx, "remote change applied", "items", len(all))
	}
	unsubscribe := auth.Subscribe(link.handle)

	return &App{
		items:    itemSvc,
		keys:     keys,
		auth:     auth,
		sync:     link,
		analyzer: analyzer,
		logger:   logger.With("module", "cli"),
		out:      os.Stdout,
		now:      time.Now,
		closers: []func(){
			unsubscribe,
			link.close,
			func() { _ = mirror.Close() },
			func() { _ = db.Close() },
		},
	}, nil
}

// Run restores a persisted sign-in and serves the REPL on stdin until the
// user quits.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "sabo (type 'help' for commands)")

	if _, ok, err := a.auth.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "restore sign-in failed", "error", err)
	} else if ok {
		fmt.Fprintln(a.out, "Signed in as", a.auth.CurrentUser())
	}

	a.in = bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, a.in)
}

// Close releases everything NewApp acquired, in order.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func (a *App) status() string {
	who := "local"
	if u := a.auth.CurrentUser(); u != "" {
		who = u
	}
	mode := "rules"
	if a.keys.Has(context.Background()) {
		mode = "ai"
	}
	return fmt.Sprintf("(%s %s)", who, mode)
}
