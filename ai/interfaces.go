package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Prober checks whether an embedding service can currently serve requests.
// Probes are cheap pre-flight checks, not guarantees: a request may still
// fail after a positive probe.
type Prober interface {
	// IsServiceAvailable reports whether the service endpoint is reachable.
	IsServiceAvailable(ctx context.Context) bool

	// IsModelAvailable reports whether the named model is loaded on the
	// service. Always false when the service itself is unreachable.
	IsModelAvailable(ctx context.Context, model string) bool
}

// Provider aggregates embedding services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and Prober
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Prober returns the availability prober for the service.
	Prober() Prober

	// ModelName returns the embedding model identifier this provider is
	// configured with. Stored alongside generated vectors for staleness
	// detection.
	ModelName() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
