package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsServer(t *testing.T, names ...string) *Prober {
	t.Helper()
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		models := make([]map[string]string, len(names))
		for i, name := range names {
			models[i] = map[string]string{"name": name}
		}
		json.NewEncoder(w).Encode(map[string]any{"models": models})
	})

	prober, err := newProber(testConfig(server.URL))
	require.NoError(t, err)
	return prober
}

func TestIsServiceAvailable(t *testing.T) {
	prober := tagsServer(t, "nomic-embed-text:latest")
	assert.True(t, prober.IsServiceAvailable(context.Background()))
}

func TestIsServiceAvailableUnreachable(t *testing.T) {
	prober, err := newProber(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.False(t, prober.IsServiceAvailable(context.Background()))
}

func TestIsModelAvailable(t *testing.T) {
	prober := tagsServer(t, "nomic-embed-text:latest", "llama3:8b")
	ctx := context.Background()

	// Tag prefix match.
	assert.True(t, prober.IsModelAvailable(ctx, "nomic-embed-text"))
	// Exact match.
	assert.True(t, prober.IsModelAvailable(ctx, "nomic-embed-text:latest"))
	assert.True(t, prober.IsModelAvailable(ctx, "llama3:8b"))

	assert.False(t, prober.IsModelAvailable(ctx, "mxbai-embed-large"))
	// Partial names must not match.
	assert.False(t, prober.IsModelAvailable(ctx, "nomic"))
}

func TestIsModelAvailableServiceDown(t *testing.T) {
	prober, err := newProber(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.False(t, prober.IsModelAvailable(context.Background(), "nomic-embed-text"))
}
