package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teiTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := 1
		if texts, ok := req.Inputs.([]interface{}); ok {
			count = len(texts)
		}
		vectors := make([][]float32, count)
		for i := range vectors {
			vectors[i] = []float32{0.1, 0.2, 0.3}
		}
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewTEIService(t *testing.T) {
	tests := []struct {
		name    string
		config  TEIConfig
		wantErr bool
	}{
		{
			name:   "valid config",
			config: TEIConfig{BaseURL: "http://localhost:8080", Model: "BAAI/bge-small-en-v1.5"},
		},
		{
			name:    "missing base URL",
			config:  TEIConfig{Model: "BAAI/bge-small-en-v1.5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTEIService(tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestTEIEmbedDocuments(t *testing.T) {
	server := teiTestServer(t)
	svc, err := NewTEIService(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
}

func TestTEIEmbedDocumentsEmptyInput(t *testing.T) {
	svc, err := NewTEIService(TEIConfig{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIEmbedQuery(t *testing.T) {
	server := teiTestServer(t)
	svc, err := NewTEIService(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	vector, err := svc.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestTEIServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	svc, err := NewTEIService(TEIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestTEIUnreachableServer(t *testing.T) {
	svc, err := NewTEIService(TEIConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestProviderFactory(t *testing.T) {
	t.Run("tei provider", func(t *testing.T) {
		p, err := NewProvider(ProviderConfig{
			Provider: "tei",
			Model:    "BAAI/bge-small-en-v1.5",
			BaseURL:  "http://localhost:8080",
		})
		require.NoError(t, err)
		assert.Equal(t, 384, p.Dimension())
		assert.NoError(t, p.Close())
	})

	t.Run("tei dimension falls back by model name", func(t *testing.T) {
		p, err := NewProvider(ProviderConfig{
			Provider: "tei",
			Model:    "some-base-model",
			BaseURL:  "http://localhost:8080",
		})
		require.NoError(t, err)
		assert.Equal(t, 768, p.Dimension())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProvider(ProviderConfig{Provider: "cloudy"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("tei without base URL", func(t *testing.T) {
		_, err := NewProvider(ProviderConfig{Provider: "tei"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
