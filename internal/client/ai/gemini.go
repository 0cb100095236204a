package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sabo/internal/logging"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
	DefaultTimeout  = 30 * time.Second
)

// DefaultFallbackModels are probed, in order, when the configured model is
// reported as not found.
var DefaultFallbackModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-pro",
}

type GeminiConfig struct {
	Endpoint       string
	Model          string
	FallbackModels []string
	Timeout        time.Duration
}

// GeminiAnalyzer talks to the generateContent REST endpoint.
//
// Model probing state belongs to the credential it was discovered with: a
// new key starts over with the configured model.
type GeminiAnalyzer struct {
	cfg    GeminiConfig
	creds  CredentialProvider
	client *http.Client
	logger logging.Logger

	mu       sync.Mutex
	stateKey string
	model    string // cached working model, "" means the configured one
	probed   bool   // probing already ran for stateKey

	probeMu sync.Mutex
}

func NewGeminiAnalyzer(cfg GeminiConfig, creds CredentialProvider, logger logging.Logger) *GeminiAnalyzer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = DefaultFallbackModels
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &GeminiAnalyzer{
		cfg:    cfg,
		creds:  creds,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("module", "ai"),
	}
}

func (g *GeminiAnalyzer) Available(ctx context.Context) bool {
	key, err := g.creds.APIKey(ctx)
	return err == nil && strings.TrimSpace(key) != ""
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	key, err := g.creds.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read credential: %v", ErrFailed, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrUnavailable
	}

	model := g.currentModel(key)
	out, err := g.generate(ctx, key, model, buildPrompt(text))
	if isNotFound(err) {
		g.logger.Warn(ctx, "model not found", "model", model)
		alt, ok := g.probe(ctx, key, model)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrFailed, err)
		}
		out, err = g.generate(ctx, key, alt, buildPrompt(text))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	return parseAnswer(out)
}

// Model reports the model the next request will use with key.
func (g *GeminiAnalyzer) Model(key string) string {
	return g.currentModel(key)
}

func (g *GeminiAnalyzer) currentModel(key string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked(key)
	if g.model != "" {
		return g.model
	}
	return g.cfg.Model
}

func (g *GeminiAnalyzer) resetLocked(key string) {
	if g.stateKey == key {
		return
	}
	g.stateKey = key
	g.model = ""
	g.probed = false
}

// probe finds a replacement for failed. It runs at most once per credential;
// later calls return the cached outcome.
func (g *GeminiAnalyzer) probe(ctx context.Context, key, failed string) (string, bool) {
	g.probeMu.Lock()
	defer g.probeMu.Unlock()

	g.mu.Lock()
	g.resetLocked(key)
	if g.probed {
		model := g.model
		g.mu.Unlock()
		// Another caller may have found a model while we waited.
		return model, model != "" && model != failed
	}
	g.mu.Unlock()

	found := ""
	for _, m := range g.cfg.FallbackModels {
		if m == failed {
			continue
		}
		if _, err := g.generate(ctx, key, m, probePrompt); err != nil {
			g.logger.Debug(ctx, "fallback model unavailable", "model", m, "error", err)
			continue
		}
		found = m
		break
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stateKey != key {
		return found, found != ""
	}
	g.probed = true
	g.model = found
	if found == "" {
		g.logger.Warn(ctx, "no fallback model available")
		return "", false
	}
	g.logger.Info(ctx, "switched to fallback model", "model", found)
	return found, true
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError is a non-2xx reply from the model endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error (status %d): %s", e.StatusCode, e.Message)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

func (g *GeminiAnalyzer) generate(ctx context.Context, key, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(g.cfg.Endpoint, "/"), url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var eb apiErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
		}
		return "", apiErr
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	var sb strings.Builder
	for _, c := range gr.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response")
	}
	return sb.String(), nil
}
