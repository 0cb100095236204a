package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/sabo/internal/client/repositories/metadata"
)

const (
	apiKeyMetadataKey = "gemini_api_key"
	// APIKeyEnvVar is the environment default for the Gemini credential.
	APIKeyEnvVar = "GEMINI_API_KEY"
)

type KeySource string

const (
	KeySourceNone  KeySource = "none"
	KeySourceSaved KeySource = "saved"
	KeySourceEnv   KeySource = "env"
)

// APIKeyService stores the Gemini credential. A saved key takes precedence
// over the environment default; blank values count as absent.
type APIKeyService interface {
	Save(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	APIKey(ctx context.Context) (string, error)
	Has(ctx context.Context) bool
	Source(ctx context.Context) KeySource
}

type apiKeyService struct {
	db         *sql.DB
	envDefault string
}

func NewAPIKeyService(db *sql.DB, envDefault string) APIKeyService {
	return &apiKeyService{db: db, envDefault: strings.TrimSpace(envDefault)}
}

// EnvAPIKey reads GEMINI_API_KEY from the process environment, falling back
// to envFile when the variable is unset. A missing envFile is not an error.
func EnvAPIKey(envFile string) (string, error) {
	if v, ok := os.LookupEnv(APIKeyEnvVar); ok {
		return strings.TrimSpace(v), nil
	}
	if envFile == "" {
		return "", nil
	}
	vals, err := godotenv.Read(envFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", envFile, err)
	}
	return strings.TrimSpace(vals[APIKeyEnvVar]), nil
}

func (s *apiKeyService) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

func (s *apiKeyService) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Clear(ctx)
	}
	return s.repo().Set(ctx, apiKeyMetadataKey, []byte(key))
}

func (s *apiKeyService) Clear(ctx context.Context) error {
	return s.repo().Delete(ctx, apiKeyMetadataKey)
}

func (s *apiKeyService) saved(ctx context.Context) (string, error) {
	v, err := s.repo().Get(ctx, apiKeyMetadataKey)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(v)), nil
}

func (s *apiKeyService) APIKey(ctx context.Context) (string, error) {
	saved, err := s.saved(ctx)
	if err != nil {
		return "", err
	}
	if saved != "" {
		return saved, nil
	}
	return s.envDefault, nil
}

func (s *apiKeyService) Has(ctx context.Context) bool {
	key, err := s.APIKey(ctx)
	return err == nil && key != ""
}

func (s *apiKeyService) Source(ctx context.Context) KeySource {
	saved, err := s.saved(ctx)
	switch {
	case err == nil && saved != "":
		return KeySourceSaved
	case s.envDefault != "":
		return KeySourceEnv
	default:
		return KeySourceNone
	}
}
