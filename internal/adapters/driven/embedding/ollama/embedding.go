// Package ollama provides an embedding engine adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.EmbeddingEngine = (*Engine)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// settingsKeyModel is the settings key under which the default embedding
// model is persisted.
const settingsKeyModel = "embedding.default_model"

// Config holds configuration for the Ollama embedding engine.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the default embedding model (default: nomic-embed-text).
	// A model persisted in the settings store takes precedence.
	Model string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// Settings optionally persists the default model across restarts.
	Settings driven.SettingsStore
}

// Engine generates embeddings using Ollama.
type Engine struct {
	client   *http.Client
	baseURL  string
	settings driven.SettingsStore

	mu    sync.RWMutex
	model string

	dimMu sync.Mutex
	dims  map[string]int
}

// embedRequest is the Ollama API request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama API response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEngine creates a new Ollama embedding engine.
func NewEngine(cfg Config) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	model := cfg.Model
	if cfg.Settings != nil {
		if persisted := cfg.Settings.GetString(settingsKeyModel); persisted != "" {
			model = persisted
		}
	}

	return &Engine{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		settings: cfg.Settings,
		model:    model,
		dims:     make(map[string]int),
	}
}

// GenerateEmbedding returns the embedding for text. An empty model uses
// the engine's current default.
func (e *Engine) GenerateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = e.CurrentModel()
	}

	reqBody := embedRequest{Model: model, Prompt: text}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+"/api/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned empty embedding for model %s", model)
	}

	// Convert float64 to float32
	embedding := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// CurrentModel returns the configured default embedding model.
func (e *Engine) CurrentModel() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// tagsResponse is the /api/tags response format.
type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// ValidateModel reports whether the named model is installed locally.
// Model tags are matched with or without their ":latest" suffix.
func (e *Engine) ValidateModel(ctx context.Context, model string) (bool, error) {
	if model == "" {
		return false, domain.ErrModelNotConfigured
	}

	var tags tagsResponse
	if err := e.getJSON(ctx, "/api/tags", &tags); err != nil {
		return false, err
	}

	want := strings.TrimSuffix(model, ":latest")
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if strings.TrimSuffix(name, ":latest") == want {
			return true, nil
		}
	}
	return false, nil
}

// showResponse is the /api/show response format. ModelInfo keys are
// architecture-prefixed, e.g. "nomic-bert.embedding_length".
type showResponse struct {
	Details struct {
		Family string `json:"family"`
	} `json:"details"`
	ModelInfo map[string]any `json:"model_info"`
}

// Dimensions returns the output vector size of the named model by
// probing the model's metadata.
func (e *Engine) Dimensions(ctx context.Context, model string) (int, error) {
	if model == "" {
		return 0, domain.ErrModelNotConfigured
	}

	e.dimMu.Lock()
	cached, ok := e.dims[model]
	e.dimMu.Unlock()
	if ok {
		return cached, nil
	}

	body, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/show", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: model %s metadata unavailable (status %d)", domain.ErrModelNotConfigured, model, resp.StatusCode)
	}

	var show showResponse
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	for key, value := range show.ModelInfo {
		if !strings.HasSuffix(key, ".embedding_length") {
			continue
		}
		if f, ok := value.(float64); ok && f > 0 {
			dims := int(f)
			e.dimMu.Lock()
			e.dims[model] = dims
			e.dimMu.Unlock()
			return dims, nil
		}
	}
	return 0, fmt.Errorf("%w: model %s reports no embedding length", domain.ErrModelNotConfigured, model)
}

// SetDefaultModel updates and persists the default embedding model.
func (e *Engine) SetDefaultModel(model string) error {
	if model == "" {
		return domain.ErrModelNotConfigured
	}

	e.mu.Lock()
	e.model = model
	e.mu.Unlock()

	if e.settings != nil {
		if err := e.settings.Set(settingsKeyModel, model); err != nil {
			return fmt.Errorf("persist default model: %w", err)
		}
	}
	return nil
}

// Ping validates the engine is reachable by checking the /api/tags
// endpoint. This validates connectivity without running inference.
func (e *Engine) Ping(ctx context.Context) error {
	var tags tagsResponse
	return e.getJSON(ctx, "/api/tags", &tags)
}

// Close releases resources.
func (e *Engine) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

func (e *Engine) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
