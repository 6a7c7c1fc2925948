package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

func collectionInfoBody(size int, points int64) map[string]any {
	return map[string]any{
		"result": map[string]any{
			"status":       "green",
			"points_count": points,
			"config": map[string]any{
				"params": map[string]any{
					"vectors": map[string]any{"size": size, "distance": "Cosine"},
				},
				"hnsw_config": map[string]any{
					"m": 16, "ef_construct": 100, "full_scan_threshold": 10000,
				},
			},
		},
	}
}

func TestCreateCollection(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/collections/conv_abc", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	err := s.CreateCollection(context.Background(), "conv_abc", 768, domain.DistanceCosine, domain.DefaultHNSWParams())
	require.NoError(t, err)

	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(768), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
	hnsw := gotBody["hnsw_config"].(map[string]any)
	assert.Equal(t, float64(16), hnsw["m"])
	assert.Equal(t, float64(100), hnsw["ef_construct"])
	assert.Equal(t, float64(10000), hnsw["full_scan_threshold"])
}

func TestCreateCollection_ExistingIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	err := s.CreateCollection(context.Background(), "conv_abc", 768, "", domain.DefaultHNSWParams())
	assert.NoError(t, err)
}

func TestCreateCollection_InvalidSize(t *testing.T) {
	s := New(Config{})
	err := s.CreateCollection(context.Background(), "conv_abc", 0, "", domain.HNSWParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/collections/conv_abc", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(collectionInfoBody(768, 42)))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	col, err := s.GetCollection(context.Background(), "conv_abc")
	require.NoError(t, err)
	assert.Equal(t, "conv_abc", col.Name)
	assert.Equal(t, 768, col.VectorSize)
	assert.Equal(t, "Cosine", col.Distance)
	assert.Equal(t, 16, col.Index.M)
	assert.Equal(t, int64(42), col.Stats.PointsCount)
	assert.Equal(t, "green", col.Stats.IndexingStatus)
}

func TestGetCollection_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	_, err := s.GetCollection(context.Background(), "conv_abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCollection_MissingIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	assert.NoError(t, s.DeleteCollection(context.Background(), "conv_abc"))
}

func TestUpsertPoints_ZeroVectorForUnembedded(t *testing.T) {
	var gotUpsert map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			require.NoError(t, json.NewEncoder(w).Encode(collectionInfoBody(3, 0)))
		case r.Method == http.MethodPut:
			require.Equal(t, "/collections/conv_abc/points", r.URL.Path)
			require.Equal(t, "true", r.URL.Query().Get("wait"), "upsert must be acknowledged")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotUpsert))
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	err := s.UpsertPoints(context.Background(), "conv_abc", []driven.Point{
		{ID: "p1", Vector: []float32{1, 2, 3}, Payload: map[string]any{"content": "embedded chunk"}},
		{ID: "p2", Vector: nil, Payload: map[string]any{"content": "degraded chunk"}},
	})
	require.NoError(t, err)

	points := gotUpsert["points"].([]any)
	require.Len(t, points, 2)

	p1 := points[0].(map[string]any)
	assert.Equal(t, true, p1["payload"].(map[string]any)["embedded"])
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, p1["vector"])

	p2 := points[1].(map[string]any)
	assert.Equal(t, false, p2["payload"].(map[string]any)["embedded"])
	assert.Equal(t, []any{float64(0), float64(0), float64(0)}, p2["vector"], "missing vector is padded to the collection size")
}

func TestSearch_FilterAndThreshold(t *testing.T) {
	var gotSearch map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/collections/conv_abc/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSearch))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"id": "p1", "score": 0.93, "payload": map[string]any{"content": "hit"}},
			},
		}))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	hits, err := s.Search(context.Background(), "conv_abc", driven.SearchParams{
		Vector:         []float32{1, 0},
		Limit:          3,
		ScoreThreshold: 0.5,
		Filter:         map[string]any{"conversation_id": "conv-1"},
	})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)
	assert.InDelta(t, 0.93, hits[0].Score, 1e-9)
	assert.Equal(t, "hit", hits[0].Payload["content"])

	assert.Equal(t, float64(3), gotSearch["limit"])
	assert.Equal(t, 0.5, gotSearch["score_threshold"])
	assert.Equal(t, true, gotSearch["with_payload"])

	must := gotSearch["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	first := must[0].(map[string]any)
	assert.Equal(t, "embedded", first["key"], "degraded points are always filtered out")
	assert.Equal(t, true, first["match"].(map[string]any)["value"])
	second := must[1].(map[string]any)
	assert.Equal(t, "conversation_id", second["key"])
	assert.Equal(t, "conv-1", second["match"].(map[string]any)["value"])
}

func TestListCollections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections":
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"collections": []map[string]string{{"name": "conv_a"}, {"name": "conv_b"}},
				},
			}))
		case "/collections/conv_a", "/collections/conv_b":
			require.NoError(t, json.NewEncoder(w).Encode(collectionInfoBody(768, 1)))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	cols, err := s.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "conv_a", cols[0].Name)
	assert.Equal(t, "conv_b", cols[1].Name)
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewEncoder(w).Encode(collectionInfoBody(768, 0)))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	_, err := s.GetCollection(context.Background(), "conv_abc")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestStoreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	s := New(Config{BaseURL: srv.URL})
	_, err := s.GetCollection(context.Background(), "conv_abc")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
