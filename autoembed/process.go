package autoembed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/projection"
	"github.com/poiesic/hindsight/storage"
)

// generate projects, embeds, and stores. retryCount is the queue retry
// count recorded if this attempt fails: 0 for immediate generation,
// item.RetryCount+1 when retrying a queued item.
func (s *Service) generate(ctx context.Context, entry *core.Entry, retryCount int) error {
	text := projection.Project(entry)
	if text == "" {
		s.logger.Debug("entry projects to empty text, nothing to embed", "entry", entry.Id)
		return nil
	}

	vector, err := s.provider.Embedder().EmbedText(ctx, text)
	if err != nil {
		s.recordFailure()
		s.enqueue(entry.Id, retryCount)
		return err
	}

	record := &core.EmbeddingRecord{
		EntryId:       entry.Id,
		EmbeddingText: text,
		Vector:        vector,
		ModelName:     s.provider.ModelName(),
		Version:       projection.Version,
	}
	if err := s.embeddingRepo.SaveEmbedding(ctx, record); err != nil {
		s.recordFailure()
		s.enqueue(entry.Id, retryCount)
		return err
	}

	s.recordSuccess()
	s.logger.Debug("embedding stored", "entry", entry.Id, "dims", len(vector))
	return nil
}

// serviceReady reports whether the embedding service is reachable and the
// configured model is loaded.
func (s *Service) serviceReady(ctx context.Context) bool {
	prober := s.provider.Prober()
	return prober.IsServiceAvailable(ctx) &&
		prober.IsModelAvailable(ctx, s.provider.ModelName())
}

// enqueue schedules queue retry number retryCount for an entry, replacing
// any pending one, after the retryCount-th backoff delay. An entry whose
// count reaches the maximum is dropped; the next startup scan will find
// it again.
func (s *Service) enqueue(id core.ID, retryCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if retryCount >= s.maxRetryCount {
		delete(s.queue, id)
		s.logger.Warn("abandoning entry after repeated failures",
			"entry", id, "failures", retryCount)
		return
	}

	idx := retryCount
	if idx >= len(s.retryDelays) {
		idx = len(s.retryDelays) - 1
	}

	s.queue[id] = core.QueuedRetry{
		EntryId:     id,
		RetryCount:  retryCount,
		NextRetryAt: time.Now().Add(s.retryDelays[idx]),
	}
}

// ProcessQueue drains every due retry. At most one drain runs at a time;
// a call that finds one in progress returns immediately rather than
// stacking up behind it. Due items are removed from the queue before
// processing so a concurrent re-queue is never lost.
func (s *Service) ProcessQueue(ctx context.Context) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return
	}
	s.processing = true

	now := time.Now()
	var due []core.QueuedRetry
	for id, item := range s.queue {
		if !item.NextRetryAt.After(now) {
			due = append(due, item)
			delete(s.queue, id)
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	if len(due) == 0 {
		return
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRetryAt.Before(due[j].NextRetryAt) })

	s.logger.Debug("processing retry queue", "due", len(due))

	for _, item := range due {
		if ctx.Err() != nil {
			// Put unprocessed items back on shutdown.
			s.requeue(item)
			continue
		}

		entry, err := s.entryRepo.GetEntry(ctx, item.EntryId)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to load entry for retry", "entry", item.EntryId, "err", err)
			s.requeue(item)
			continue
		}

		// The entry may have been re-embedded since this retry was queued.
		if s.hasCurrentEmbedding(ctx, entry) {
			continue
		}

		// An unavailable service never consumes a retry attempt.
		if !s.serviceReady(ctx) {
			s.logger.Warn("embedding service unavailable, deferring",
				"entry", item.EntryId, "retryCount", item.RetryCount)
			s.requeue(item)
			continue
		}

		if err := s.generate(ctx, entry, item.RetryCount+1); err != nil {
			continue
		}

		if s.interItemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.interItemDelay):
			}
		}
	}
}

// requeue puts an item back with its retry count unchanged.
func (s *Service) requeue(item core.QueuedRetry) {
	s.enqueue(item.EntryId, item.RetryCount)
}

// ScanForMissing walks every entry and reconciles those without a current
// embedding: when the service and model are available they are generated
// in place with the usual inter-item spacing, otherwise they are queued
// for the background worker. Intended to run once at startup to pick up
// entries that were abandoned or created while the embedding service was
// down. Returns the number of entries reconciled.
func (s *Service) ScanForMissing(ctx context.Context) (int, error) {
	entries, err := s.entryRepo.GetEntries(ctx, nil)
	if err != nil {
		return 0, err
	}

	var missing []*core.Entry
	for _, entry := range entries {
		if projection.Project(entry) == "" {
			continue
		}
		if s.hasCurrentEmbedding(ctx, entry) {
			continue
		}
		s.mu.Lock()
		_, pending := s.queue[entry.Id]
		s.mu.Unlock()
		if pending {
			continue
		}
		missing = append(missing, entry)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	if !s.serviceReady(ctx) {
		s.logger.Warn("embedding service unavailable, queueing startup scan results",
			"count", len(missing))
		for _, entry := range missing {
			s.enqueue(entry.Id, 0)
		}
		return len(missing), nil
	}

	s.logger.Info("startup scan generating missing embeddings", "count", len(missing))
	for _, entry := range missing {
		if ctx.Err() != nil {
			s.enqueue(entry.Id, 0)
			continue
		}
		if err := s.generate(ctx, entry, 0); err != nil {
			continue
		}
		if s.interItemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.interItemDelay):
			}
		}
	}
	return len(missing), nil
}

// hasCurrentEmbedding reports whether the stored embedding for an entry
// matches its current projected text, model, and projection version.
func (s *Service) hasCurrentEmbedding(ctx context.Context, entry *core.Entry) bool {
	record, err := s.embeddingRepo.GetEmbedding(ctx, entry.Id)
	if err != nil {
		return false
	}
	return record.ModelName == s.provider.ModelName() &&
		record.Version == projection.Version &&
		record.EmbeddingText == projection.Project(entry)
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalGenerated++
	s.lastSuccess = time.Now()
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFailed++
}

// Metrics is a point-in-time snapshot of orchestrator activity.
type Metrics struct {
	TotalGenerated uint64
	TotalFailed    uint64
	QueueDepth     int
	LastSuccess    time.Time
}

// Metrics returns a snapshot of the service counters.
func (s *Service) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metrics{
		TotalGenerated: s.totalGenerated,
		TotalFailed:    s.totalFailed,
		QueueDepth:     len(s.queue),
		LastSuccess:    s.lastSuccess,
	}
}
