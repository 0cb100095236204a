// Package items stores the whole item collection as one JSON value in the
// metadata table. Reads are tolerant: an absent or malformed value is an
// empty collection.
package items

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/dbx"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

type Repository interface {
	ReadAll(ctx context.Context) ([]models.Item, error)
	WriteAll(ctx context.Context, items []models.Item) error
	// Update runs fn over the current collection and stores its result in a
	// single transaction. The stored collection is returned.
	Update(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error)
}

type SQLiteRepository struct {
	db     *sql.DB
	key    string
	logger logging.Logger
}

func NewSQLiteRepository(db *sql.DB, logger logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{
		db:     db,
		key:    common.ItemsStorageKey,
		logger: logger.With("module", "items"),
	}
}

func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]models.Item, error) {
	return r.read(ctx, metadata.NewSQLiteRepository(r.db))
}

func (r *SQLiteRepository) WriteAll(ctx context.Context, items []models.Item) error {
	return r.write(ctx, metadata.NewSQLiteRepository(r.db), items)
}

func (r *SQLiteRepository) Update(ctx context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error) {
	var stored []models.Item
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := metadata.NewSQLiteRepository(tx)
		current, err := r.read(ctx, kv)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if err := r.write(ctx, kv, next); err != nil {
			return err
		}
		stored = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *SQLiteRepository) read(ctx context.Context, kv metadata.Repository) ([]models.Item, error) {
	raw, err := kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	if len(raw) == 0 {
		return []models.Item{}, nil
	}
	items, err := models.DecodeItems(raw)
	if err != nil {
		r.logger.Warn(ctx, "stored items are malformed, treating as empty", "error", err)
		return []models.Item{}, nil
	}
	return items, nil
}

func (r *SQLiteRepository) write(ctx context.Context, kv metadata.Repository, items []models.Item) error {
	raw, err := models.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if err := kv.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("write items: %w", err)
	}
	return nil
}
