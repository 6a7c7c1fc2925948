// Package qdrant provides a vector database adapter backed by the
// Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorDatabase = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds connection details for a Qdrant instance.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey is sent in the api-key header when non-empty.
	APIKey string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a Qdrant store.
func New(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateCollection creates a collection with the given vector size and
// index parameters. Qdrant returns 409 for an existing collection; that
// is swallowed so creation is idempotent.
func (s *Store) CreateCollection(ctx context.Context, name string, vectorSize int, distance string, index domain.HNSWParams) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}
	if distance == "" {
		distance = domain.DistanceCosine
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": distance,
		},
		"hnsw_config": map[string]any{
			"m":                   index.M,
			"ef_construct":        index.EfConstruct,
			"full_scan_threshold": index.FullScanThreshold,
		},
	}

	err := s.do(ctx, http.MethodPut, "/collections/"+name, body, nil)
	if err != nil && strings.Contains(err.Error(), "status 409") {
		return nil
	}
	return err
}

// collectionInfo is the GET /collections/{name} response format.
type collectionInfo struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount int64  `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
			HNSWConfig struct {
				M                 int `json:"m"`
				EfConstruct       int `json:"ef_construct"`
				FullScanThreshold int `json:"full_scan_threshold"`
			} `json:"hnsw_config"`
		} `json:"config"`
	} `json:"result"`
}

// GetCollection returns collection configuration and stats.
func (s *Store) GetCollection(ctx context.Context, name string) (*domain.VectorCollection, error) {
	var info collectionInfo
	err := s.do(ctx, http.MethodGet, "/collections/"+name, nil, &info)
	if err != nil {
		if strings.Contains(err.Error(), "status 404") {
			return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
		}
		return nil, err
	}

	return &domain.VectorCollection{
		Name:       name,
		VectorSize: info.Result.Config.Params.Vectors.Size,
		Distance:   info.Result.Config.Params.Vectors.Distance,
		Index: domain.HNSWParams{
			M:                 info.Result.Config.HNSWConfig.M,
			EfConstruct:       info.Result.Config.HNSWConfig.EfConstruct,
			FullScanThreshold: info.Result.Config.HNSWConfig.FullScanThreshold,
		},
		Stats: domain.CollectionStats{
			PointsCount:    info.Result.PointsCount,
			IndexingStatus: info.Result.Status,
		},
		UpdatedAt: time.Now(),
	}, nil
}

// DeleteCollection removes a collection. Missing collections are not an
// error (idempotent delete).
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
	if err != nil && strings.Contains(err.Error(), "status 404") {
		return nil
	}
	return err
}

// ListCollections returns every collection with its configuration.
func (s *Store) ListCollections(ctx context.Context) ([]domain.VectorCollection, error) {
	var list struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &list); err != nil {
		return nil, err
	}

	collections := make([]domain.VectorCollection, 0, len(list.Result.Collections))
	for _, c := range list.Result.Collections {
		col, err := s.GetCollection(ctx, c.Name)
		if err != nil {
			// Collection deleted between list and describe; skip it.
			continue
		}
		collections = append(collections, *col)
	}
	return collections, nil
}

// UpsertPoints writes points with wait=true so the write is acknowledged
// before the call returns. Points without a vector are stored with a
// zero vector and an embedded=false payload marker; search always
// filters on embedded=true so they never surface as hits.
func (s *Store) UpsertPoints(ctx context.Context, collection string, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}

	col, err := s.GetCollection(ctx, collection)
	if err != nil {
		return err
	}

	qpoints := make([]map[string]any, 0, len(points))
	for _, p := range points {
		vector := p.Vector
		payload := p.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		if vector == nil {
			// Qdrant requires a vector per point; store a zero vector
			// and mark the payload so search results can be filtered.
			vector = make([]float32, col.VectorSize)
			payload["embedded"] = false
		} else {
			payload["embedded"] = true
		}
		qpoints = append(qpoints, map[string]any{
			"id":      p.ID,
			"vector":  vector,
			"payload": payload,
		})
	}

	body := map[string]any{"points": qpoints}
	return s.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
}

// Search runs a similarity query with payload filtering.
func (s *Store) Search(ctx context.Context, collection string, params driven.SearchParams) ([]driven.ScoredPoint, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}

	must := []map[string]any{
		{"key": "embedded", "match": map[string]any{"value": true}},
	}
	for key, value := range params.Filter {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": value},
		})
	}

	req := map[string]any{
		"vector":       params.Vector,
		"limit":        limit,
		"with_payload": true,
		"filter":       map[string]any{"must": must},
	}
	if params.ScoreThreshold > 0 {
		req["score_threshold"] = params.ScoreThreshold
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, driven.ScoredPoint{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed (status %d): %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
