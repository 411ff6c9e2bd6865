package ai

import "errors"

var (
	// ErrMalformedResponse indicates the service answered but the payload
	// did not contain a usable embedding. Treated as transient and retried
	// the same way a network failure is.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrServiceUnavailable indicates the embedding service could not be
	// reached at all.
	ErrServiceUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed indicates all attempts for a request were
	// exhausted. The last underlying cause is wrapped alongside it.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
