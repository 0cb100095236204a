package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/ai"
	"github.com/dmitrijs2005/sabo/internal/client/classifier"
	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

// Orchestrator turns raw text into a draft item. It prefers the AI analyzer
// and falls back to the rule classifier whenever the analyzer is missing,
// unavailable, fails or panics.
type Orchestrator struct {
	analyzer ai.Analyzer
	logger   logging.Logger
	now      func() time.Time
}

// NewOrchestrator accepts a nil analyzer, in which case only rules are used.
func NewOrchestrator(analyzer ai.Analyzer, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		analyzer: analyzer,
		logger:   logger.With("module", "capture"),
		now:      time.Now,
	}
}

// CreateItem always returns a usable draft.
func (o *Orchestrator) CreateItem(ctx context.Context, text string) models.Draft {
	draft := models.Draft{
		RawText:   text,
		CreatedAt: o.now().UTC(),
		Status:    models.StatusTodo,
	}

	res, err := o.analyze(ctx, text)
	switch {
	case err == nil:
		draft.Category = res.Category
		draft.Scope = res.Scope
		draft.Summary = res.Summary
		draft.Detail = res.Detail
		draft.Tags = res.Tags
		draft.AIProcessed = true
		return draft
	case errors.Is(err, ai.ErrUnavailable):
		o.logger.Debug(ctx, "ai unavailable, using rules")
	default:
		o.logger.Warn(ctx, "ai analysis failed, using rules", "error", err)
	}

	rule := classifier.Classify(text)
	draft.Category = rule.Category
	draft.Scope = rule.Scope
	draft.Summary = rule.Summary
	return draft
}

func (o *Orchestrator) analyze(ctx context.Context, text string) (res *ai.Result, err error) {
	if o.analyzer == nil {
		return nil, ai.ErrUnavailable
	}
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("%w: analyzer panic: %v", ai.ErrFailed, p)
		}
	}()

	if !o.analyzer.Available(ctx) {
		return nil, ai.ErrUnavailable
	}
	res, err = o.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	if res == nil || !res.Category.Valid() || !res.Scope.Valid() || res.Summary == "" {
		return nil, fmt.Errorf("%w: invalid result", ai.ErrFailed)
	}
	return res, nil
}
