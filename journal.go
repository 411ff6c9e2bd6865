// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package hindsight

import (
	"context"
	"log/slog"

	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/ai/ollama"
	"github.com/poiesic/hindsight/autoembed"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/search"
	"github.com/poiesic/hindsight/storage"
	"github.com/poiesic/hindsight/storage/badger"
)

// Journal is the top-level handle over a decision journal: entry storage,
// automatic embedding upkeep, and hybrid search.
type Journal struct {
	backend       *badger.Backend
	entryRepo     storage.EntryRepository
	embeddingRepo storage.EmbeddingRepository
	provider      ai.Provider
	orchestrator  *autoembed.Service
	logger        *slog.Logger
}

// JournalOption configures a Journal.
type JournalOption func(*journalOptions)

type journalOptions struct {
	aiConfig      *ai.Config
	provider      ai.Provider
	autoembedOpts []autoembed.Option
	inMemory      bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) JournalOption {
	return func(o *journalOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of the default
// Ollama one. The journal takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) JournalOption {
	return func(o *journalOptions) {
		o.provider = provider
	}
}

// WithAutoembedOptions forwards options to the embedding orchestrator.
func WithAutoembedOptions(opts ...autoembed.Option) JournalOption {
	return func(o *journalOptions) {
		o.autoembedOpts = append(o.autoembedOpts, opts...)
	}
}

// WithInMemoryStorage keeps all data in memory. For tests.
func WithInMemoryStorage() JournalOption {
	return func(o *journalOptions) {
		o.inMemory = true
	}
}

// NewJournal opens (or creates) a journal at filePath and wires up
// storage, the embedding provider, and the auto-embedding orchestrator.
// The orchestrator's background worker is not started; call Start.
func NewJournal(filePath string, opts ...JournalOption) (*Journal, error) {
	options := &journalOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embeddingRepo := badger.NewEmbeddingRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = ollama.NewProvider(options.aiConfig)
		if err != nil {
			entryRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	orchestrator, err := autoembed.NewService(entryRepo, embeddingRepo, provider, options.autoembedOpts...)
	if err != nil {
		provider.Close()
		entryRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Journal{
		backend:       backend,
		entryRepo:     entryRepo,
		embeddingRepo: embeddingRepo,
		provider:      provider,
		orchestrator:  orchestrator,
		logger:        slog.Default(),
	}, nil
}

// Start reconciles missing embeddings and launches the background retry
// worker.
func (j *Journal) Start(ctx context.Context) error {
	if _, err := j.orchestrator.ScanForMissing(ctx); err != nil {
		return err
	}
	return j.orchestrator.Start(ctx)
}

// SaveEntry stores a new entry and schedules its embedding.
func (j *Journal) SaveEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	added, err := j.entryRepo.AddEntries(ctx, entry)
	if err != nil {
		return nil, err
	}
	saved := added[0]

	if err := j.orchestrator.NotifyEntryChanged(nil, saved); err != nil {
		j.logger.Error("failed to schedule embedding", "entry", saved.Id, "err", err)
	}
	return saved, nil
}

// UpdateEntry stores changes to an existing entry. If the edit touched
// the embedded fields, re-embedding is scheduled.
func (j *Journal) UpdateEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	old, err := j.entryRepo.UpdateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	if err := j.orchestrator.NotifyEntryChanged(old, entry); err != nil {
		j.logger.Error("failed to schedule re-embedding", "entry", entry.Id, "err", err)
	}
	return old, nil
}

// DeleteEntry removes an entry and its stored embedding.
func (j *Journal) DeleteEntry(ctx context.Context, id core.ID) error {
	if err := j.entryRepo.DeleteEntries(ctx, id); err != nil {
		return err
	}
	// An orphaned vector would keep surfacing a deleted entry in search.
	return j.embeddingRepo.DeleteEmbedding(ctx, id)
}

// GetEntry retrieves a single entry by ID.
func (j *Journal) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	return j.entryRepo.GetEntry(ctx, id)
}

// GetEntries retrieves entries matching the filter, oldest first.
func (j *Journal) GetEntries(ctx context.Context, filter *core.Filter) ([]*core.Entry, error) {
	return j.entryRepo.GetEntries(ctx, filter)
}

// EntryRepository exposes the underlying entry store.
func (j *Journal) EntryRepository() storage.EntryRepository {
	return j.entryRepo
}

// EmbeddingRepository exposes the underlying embedding store.
func (j *Journal) EmbeddingRepository() storage.EmbeddingRepository {
	return j.embeddingRepo
}

// Orchestrator exposes the auto-embedding service, mainly for metrics.
func (j *Journal) Orchestrator() *autoembed.Service {
	return j.orchestrator
}

// Provider exposes the configured AI provider.
func (j *Journal) Provider() ai.Provider {
	return j.provider
}

// NewSearcher builds a hybrid searcher over this journal.
func (j *Journal) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(j.entryRepo, j.embeddingRepo, j.provider.Embedder(), opts...)
}

// Close stops the orchestrator and releases every resource.
func (j *Journal) Close() error {
	j.orchestrator.Stop()

	if err := j.provider.Close(); err != nil {
		j.logger.Error("error closing AI provider", "err", err)
	}

	if err := j.entryRepo.Close(); err != nil {
		j.logger.Error("error closing entry repository", "err", err)
		return err
	}
	if err := j.embeddingRepo.Close(); err != nil {
		j.logger.Error("error closing embedding repository", "err", err)
		return err
	}

	if err := j.backend.Close(); err != nil {
		j.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
