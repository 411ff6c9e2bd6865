package autoembed

import "errors"

var (
	// ErrEntryRepositoryRequired is returned when no entry repository is provided.
	ErrEntryRepositoryRequired = errors.New("entry repository is required")

	// ErrEmbeddingRepositoryRequired is returned when no embedding repository is provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository is required")

	// ErrProviderRequired is returned when no AI provider is provided.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("service already started")
)
