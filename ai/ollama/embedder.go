package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/hindsight/ai"
)

// Embedder implements ai.Embedder against a local Ollama server using its
// native API. Each request is attempted up to MaxRetries times with a
// linearly growing delay between attempts; a malformed reply is retried
// the same way a network failure is.
type Embedder struct {
	client     *client
	model      string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: config.RequestTimeout}

	return &Embedder{
		client:     newClient(config.Host, httpClient),
		model:      config.EmbeddingModel,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		vector, err := e.client.embed(ctx, e.model, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		e.logger.Warn("embedding attempt failed",
			"attempt", attempt, "max", e.maxRetries, "err", err)

		if attempt < e.maxRetries {
			// Linear backoff: 1x, 2x, ... the base delay.
			if err := sleepCtx(ctx, e.retryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Error("embedding attempts exhausted", "attempts", e.maxRetries, "err", lastErr)
	return nil, fmt.Errorf("%w after %d attempts: %w", ai.ErrEmbeddingFailed, e.maxRetries, lastErr)
}

// EmbedTexts generates vector embeddings for multiple text strings.
// The native API embeds one prompt per request, so texts are processed
// sequentially; each text carries its own retry budget.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
