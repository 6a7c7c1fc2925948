package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// fakeEngine is an in-memory EmbeddingEngine for tests. It produces a
// constant vector of the model's dimensionality and can be told to fail
// a fixed number of GenerateEmbedding calls.
type fakeEngine struct {
	mu     sync.Mutex
	model  string
	models map[string]int // model name -> dimensions

	failNext  atomic.Int32
	embedErr  error
	calls     atomic.Int32
	setCalls  []string
	pingError error
}

func newFakeEngine(model string, dims int) *fakeEngine {
	return &fakeEngine{
		model:  model,
		models: map[string]int{model: dims},
	}
}

func (e *fakeEngine) addModel(name string, dims int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.models[name] = dims
}

func (e *fakeEngine) GenerateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.calls.Add(1)
	if e.failNext.Load() > 0 {
		e.failNext.Add(-1)
		if e.embedErr != nil {
			return nil, e.embedErr
		}
		return nil, errors.New("embedding backend exploded")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if model == "" {
		model = e.model
	}
	dims, ok := e.models[model]
	if !ok {
		return nil, domain.ErrModelUnavailable
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(len(text)%7) + 0.5
	}
	return vec, nil
}

func (e *fakeEngine) CurrentModel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

func (e *fakeEngine) ValidateModel(_ context.Context, model string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.models[model]
	return ok, nil
}

func (e *fakeEngine) Dimensions(_ context.Context, model string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	dims, ok := e.models[model]
	if !ok {
		return 0, domain.ErrModelNotConfigured
	}
	return dims, nil
}

func (e *fakeEngine) SetDefaultModel(model string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = model
	e.setCalls = append(e.setCalls, model)
	return nil
}

func (e *fakeEngine) Ping(context.Context) error { return e.pingError }
func (e *fakeEngine) Close() error               { return nil }

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	mu   sync.Mutex
	data map[string]any
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{data: make(map[string]any)}
}

func (s *fakeSettings) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeSettings) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *fakeSettings) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func (s *fakeSettings) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeSettings) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
