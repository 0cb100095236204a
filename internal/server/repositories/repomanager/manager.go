// Package repomanager opens the configured document backend, runs its
// migrations and owns its connections.
package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dmitrijs2005/sabo/internal/server/config"
	"github.com/dmitrijs2005/sabo/internal/server/migrations"
	"github.com/dmitrijs2005/sabo/internal/server/repositories/documents"
)

const connectTimeout = 10 * time.Second

// Test seams.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	sqlOpen              = sql.Open
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig
)

// Manager holds the open document repository.
type Manager struct {
	documents documents.Repository
	closers   []func(context.Context) error
}

func (m *Manager) Documents() documents.Repository {
	return m.documents
}

// Close releases backend connections.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c(ctx))
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Open connects to cfg.Storage.
func Open(ctx context.Context, cfg *config.Config) (*Manager, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return &Manager{documents: documents.NewMemoryRepository()}, nil
	case config.StoragePostgres:
		return openPostgres(ctx, cfg.DatabaseDSN)
	case config.StorageMongo:
		return openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StorageS3:
		return openS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// RunMigrations applies the embedded schema with goose.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func openPostgres(ctx context.Context, dsn string) (*Manager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &Manager{
		documents: documents.NewPostgresRepository(db),
		closers:   []func(context.Context) error{func(context.Context) error { return db.Close() }},
	}, nil
}

func openMongo(ctx context.Context, uri, database string) (*Manager, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	repo := documents.NewMongoRepository(client.Database(database).Collection(documents.MongoCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Manager{
		documents: repo,
		closers:   []func(context.Context) error{client.Disconnect},
	}, nil
}

func openS3(ctx context.Context, cfg *config.Config) (*Manager, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})
	return &Manager{documents: documents.NewS3Repository(client, cfg.S3Bucket)}, nil
}
