package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/dbx"
	"github.com/dmitrijs2005/sabo/internal/server/models"
)

// PostgresRepository keeps documents in the documents table (JSONB items)
// over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Document, error) {
	query := `SELECT user_id, items, updated_at, version FROM documents WHERE user_id = $1`

	var (
		doc   models.Document
		items []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&doc.UserID, &items, &doc.UpdatedAt, &doc.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.Items = items
	return &doc, nil
}

// Put upserts the row; only items, updated_at and version change on
// conflict.
func (r *PostgresRepository) Put(ctx context.Context, userID string, items json.RawMessage, now time.Time) (*models.Document, error) {
	query := `
		INSERT INTO documents (user_id, items, updated_at, version)
		VALUES ($1, $2::jsonb, $3, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at,
			version = documents.version + 1
		RETURNING version;
	`
	var version int64
	if err := r.db.QueryRowContext(ctx, query, userID, string(items), now).Scan(&version); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &models.Document{UserID: userID, Items: items, UpdatedAt: now, Version: version}, nil
}
