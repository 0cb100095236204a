package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

// Client is the mirror transport as seen by the application.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	SetAccessToken(token string)
	FetchDocument(ctx context.Context, userID string) ([]models.Item, bool, error)
	PutDocument(ctx context.Context, userID string, items []models.Item) (time.Time, error)
	WatchDocument(ctx context.Context, userID string, fn func([]models.Item)) (func(), error)
}
