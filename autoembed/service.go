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


package autoembed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/projection"
	"github.com/poiesic/hindsight/storage"
)

// Default orchestration parameters.
var defaultRetryDelays = []time.Duration{
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	time.Hour,
	time.Hour,
}

const (
	// defaultMaxRetryCount is the number of queue retries an entry gets
	// before it is abandoned. Abandoned entries are picked up again by
	// the next startup scan.
	defaultMaxRetryCount = 5

	// defaultTickInterval is how often the background worker drains
	// due retries.
	defaultTickInterval = 30 * time.Second

	// defaultInterItemDelay spaces out successive generations so a
	// long queue does not monopolize the embedding service.
	defaultInterItemDelay = 500 * time.Millisecond
)

// Service keeps stored embeddings in sync with journal entries. Entry
// changes trigger generation through a single-worker pool; failures land
// in an in-memory retry queue drained by a background ticker. The queue
// is deliberately not persisted: a restart runs ScanForMissing instead.
type Service struct {
	entryRepo     storage.EntryRepository
	embeddingRepo storage.EmbeddingRepository
	provider      ai.Provider
	pool          *ants.Pool
	logger        *slog.Logger

	tickInterval   time.Duration
	interItemDelay time.Duration
	retryDelays    []time.Duration
	maxRetryCount  int

	mu         sync.Mutex
	queue      map[core.ID]core.QueuedRetry
	processing bool
	started    bool

	totalGenerated uint64
	totalFailed    uint64
	lastSuccess    time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithTickInterval sets how often the background worker checks the
// retry queue. Default is 30s.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithRetryDelays sets the backoff schedule. Queue retry n waits for the
// n-th element; counts past the end reuse the last one.
func WithRetryDelays(delays []time.Duration) Option {
	return func(s *Service) {
		if len(delays) > 0 {
			s.retryDelays = delays
		}
	}
}

// WithMaxRetryCount sets the failure count at which an entry is abandoned.
func WithMaxRetryCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetryCount = n
		}
	}
}

// WithInterItemDelay sets the pause between successive queue generations.
func WithInterItemDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.interItemDelay = d
		}
	}
}

// NewService creates an auto-embedding service.
func NewService(
	entryRepo storage.EntryRepository,
	embeddingRepo storage.EmbeddingRepository,
	provider ai.Provider,
	opts ...Option,
) (*Service, error) {
	if entryRepo == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if embeddingRepo == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	// One worker: change-triggered generations run strictly in order.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	s := &Service{
		entryRepo:      entryRepo,
		embeddingRepo:  embeddingRepo,
		provider:       provider,
		pool:           pool,
		logger:         slog.Default().With("component", "autoembed"),
		tickInterval:   defaultTickInterval,
		interItemDelay: defaultInterItemDelay,
		retryDelays:    defaultRetryDelays,
		maxRetryCount:  defaultMaxRetryCount,
		queue:          make(map[core.ID]core.QueuedRetry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start launches the background retry worker. The worker runs until the
// context is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		// Drain anything a startup scan queued before settling into the
		// regular tick.
		s.ProcessQueue(runCtx)
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.ProcessQueue(runCtx)
			}
		}
	}()

	s.logger.Info("auto-embedding worker started", "tick", s.tickInterval)
	return nil
}

// Stop halts the background worker and releases the generation pool.
// The service should not be used after calling Stop.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.pool.Release()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

// NotifyEntryChanged schedules embedding generation for an entry whose
// projected text may have changed. old is the entry state before the
// change, nil for a newly created entry. Changes that do not affect the
// projected text are ignored.
func (s *Service) NotifyEntryChanged(old, updated *core.Entry) error {
	if old != nil && !projection.NeedsReembedding(old, updated) {
		return nil
	}

	entry := *updated
	return s.pool.Submit(func() {
		ctx := context.Background()
		if !s.serviceReady(ctx) {
			s.logger.Warn("embedding service unavailable, deferring",
				"entry", entry.Id)
			s.enqueue(entry.Id, 0)
			return
		}
		if err := s.generate(ctx, &entry, 0); err != nil {
			s.logger.Error("change-triggered embedding failed",
				"entry", entry.Id, "err", err)
		}
	})
}

// GenerateForEntry generates and stores the embedding for one entry
// synchronously. An entry that no longer exists is skipped. Failures are
// queued for retry in addition to being returned.
func (s *Service) GenerateForEntry(ctx context.Context, id core.ID) error {
	entry, err := s.entryRepo.GetEntry(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("entry vanished before embedding", "entry", id)
		return nil
	}
	if err != nil {
		return err
	}

	if !s.serviceReady(ctx) {
		s.logger.Warn("embedding service unavailable, deferring", "entry", id)
		s.enqueue(id, 0)
		return ai.ErrServiceUnavailable
	}
	return s.generate(ctx, entry, 0)
}

// QueueDepth returns the number of entries waiting for retry.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
