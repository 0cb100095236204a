package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/sabo/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/dbx"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

const (
	tokenMetadataKey  = "access_token"
	userIDMetadataKey = "user_id"
)

type AuthEventKind int

const (
	SignedIn AuthEventKind = iota + 1
	SignedOut
)

type AuthEvent struct {
	Kind   AuthEventKind
	UserID string
}

// TokenSink receives the token used for mirror calls.
type TokenSink interface {
	SetAccessToken(token string)
}

// AuthService keeps track of the signed-in user. Tokens come from an
// external identity provider; the client only reads the user id from them,
// the mirror server verifies them.
type AuthService interface {
	SignIn(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context) error
	// Restore signs in again with a persisted token, if there is one.
	Restore(ctx context.Context) (string, bool, error)
	CurrentUser() string
	Subscribe(fn func(AuthEvent)) (unsubscribe func())
}

type authService struct {
	db     *sql.DB
	sink   TokenSink
	logger logging.Logger

	mu     sync.Mutex
	userID string
	subs   map[int]func(AuthEvent)
	nextID int
}

func NewAuthService(db *sql.DB, sink TokenSink, logger logging.Logger) AuthService {
	return &authService{
		db:     db,
		sink:   sink,
		logger: logger.With("module", "auth"),
		subs:   make(map[int]func(AuthEvent)),
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string
}

// UserIDFromToken reads the user id from an unverified JWT: the UserID
// claim, or the subject when UserID is absent.
func UserIDFromToken(token string) (string, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("%w: no user id claim", common.ErrInvalidToken)
}

func (a *authService) SignIn(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	userID, err := UserIDFromToken(token)
	if err != nil {
		return "", err
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, tokenMetadataKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, userIDMetadataKey, []byte(userID))
	})
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	a.activate(ctx, token, userID)
	return userID, nil
}

func (a *authService) Restore(ctx context.Context) (string, bool, error) {
	raw, err := metadata.NewSQLiteRepository(a.db).Get(ctx, tokenMetadataKey)
	if err != nil {
		return "", false, err
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", false, nil
	}
	userID, err := UserIDFromToken(token)
	if err != nil {
		a.logger.Warn(ctx, "discarding unreadable saved token", "error", err)
		return "", false, a.clear(ctx)
	}
	a.activate(ctx, token, userID)
	return userID, true, nil
}

func (a *authService) SignOut(ctx context.Context) error {
	a.mu.Lock()
	userID := a.userID
	a.userID = ""
	a.mu.Unlock()

	if err := a.clear(ctx); err != nil {
		return err
	}
	a.sink.SetAccessToken("")
	if userID != "" {
		a.logger.Info(ctx, "signed out", "user", userID)
		a.emit(AuthEvent{Kind: SignedOut, UserID: userID})
	}
	return nil
}

func (a *authService) CurrentUser() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

func (a *authService) Subscribe(fn func(AuthEvent)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *authService) activate(ctx context.Context, token, userID string) {
	a.sink.SetAccessToken(token)
	a.mu.Lock()
	a.userID = userID
	a.mu.Unlock()
	a.logger.Info(ctx, "signed in", "user", userID)
	a.emit(AuthEvent{Kind: SignedIn, UserID: userID})
}

func (a *authService) clear(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, tokenMetadataKey); err != nil {
			return err
		}
		return repo.Delete(ctx, userIDMetadataKey)
	})
}

func (a *authService) emit(ev AuthEvent) {
	a.mu.Lock()
	subs := make([]func(AuthEvent), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
