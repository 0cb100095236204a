// Package ai is the remote classification adapter. It asks a Gemini model
// to classify a note and validates the answer before anyone uses it.
package ai

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

var (
	// ErrUnavailable means no credential is configured. Callers fall back
	// silently.
	ErrUnavailable = errors.New("ai: no credential configured")
	// ErrFailed wraps every other failure: transport, non-2xx replies,
	// malformed bodies and answers that fail validation.
	ErrFailed = errors.New("ai: analysis failed")
)

// Result is a validated model answer.
type Result struct {
	Category models.Category
	Scope    models.Scope
	Summary  string
	Detail   string
	Tags     []string
}

type Analyzer interface {
	Available(ctx context.Context) bool
	Analyze(ctx context.Context, text string) (*Result, error)
}

// CredentialProvider supplies the API key. An empty key means unavailable.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}
