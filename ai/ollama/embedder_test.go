package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/hindsight/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithEmbeddingModel("nomic-embed-text"),
		ai.WithRetryDelay(time.Millisecond),
	)
}

func embeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestEmbedText(t *testing.T) {
	var gotModel, gotPrompt string
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req["model"]
		gotPrompt = req["prompt"]

		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{0.1, 0.2, 0.3},
		})
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "some decision text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "nomic-embed-text", gotModel)
	assert.Equal(t, "some decision text", gotPrompt)
}

func TestEmbedTextRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1}})
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vector)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedTextExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	assert.Equal(t, int32(3), calls.Load(), "default budget is three attempts")
}

func TestEmbedTextMalformedResponseIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			// 200 OK but no embedding field.
			json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.5}})
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, vector)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedTextMalformedShapeExhausts(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		// embedding present but not an array
		json.NewEncoder(w).Encode(map[string]any{"embedding": "oops"})
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestEmbedTextUnreachableService(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
}

func TestEmbedTextContextCancelDuringBackoff(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	cfg := testConfig(server.URL)
	cfg.RetryDelay = time.Minute

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = embedder.EmbedText(ctx, "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmbedTextsOrder(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{float32(len(req["prompt"]))},
		})
	})

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}
