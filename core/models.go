package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Entry IDs are generated from a database sequence; derived keys
// (keyword tokens) use content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Entry represents a single journal entry: a decision, its context,
// and (eventually) its outcome.
type Entry struct {
	Id           ID
	Problem      string   // The decision or problem statement
	Situation    string   // Free-form context at the time of the decision
	Alternatives []string // Options that were considered
	Resolution   string   // Outcome text, empty until an outcome is recorded
	Confidence   int      // Confidence at decision time, 1-10 (0 = unset)
	Tags         []string
	IsArchived   bool
	CreatedAt    time.Time // When the entry was created
	UpdatedAt    time.Time // When the entry was last updated
}

// HasOutcome reports whether an outcome has been recorded for the entry.
func (e *Entry) HasOutcome() bool {
	return e.Resolution != ""
}

// EmbeddingRecord holds the stored vector for one entry.
// At most one record exists per entry; writes overwrite.
type EmbeddingRecord struct {
	EntryId       ID
	EmbeddingText string    // The projected text the vector was generated from
	Vector        []float32 // Fixed-length, dimensionality set by the model
	ModelName     string
	Version       int32 // Projection template version, used for staleness detection
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueuedRetry is a pending re-generation attempt for one entry.
// At most one exists per entry at any time; re-queuing replaces.
// Never persisted - the retry queue lives in memory.
type QueuedRetry struct {
	EntryId     ID
	RetryCount  int
	NextRetryAt time.Time
}

// MatchType identifies which retrieval signals produced a search result.
type MatchType int

const (
	// MatchSemantic means the result came from vector similarity only.
	MatchSemantic MatchType = iota + 1
	// MatchKeyword means the result came from the keyword index only.
	MatchKeyword
	// MatchHybrid means both signals matched.
	MatchHybrid
)

// String returns the wire name of the match type.
func (m MatchType) String() string {
	switch m {
	case MatchSemantic:
		return "semantic"
	case MatchKeyword:
		return "keyword"
	case MatchHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// SearchResult is one ranked hit from a hybrid search.
// Ephemeral - constructed per query, never persisted.
type SearchResult struct {
	EntryId    ID
	Similarity float64 // Raw cosine similarity, 0 for keyword-only hits
	Score      float64 // Combined score after boosting and weighting
	Rank       int     // Dense 1-based rank
	MatchType  MatchType
}

// Filter narrows the entry set considered by a query.
// Nil pointer fields mean "no constraint".
type Filter struct {
	Tags          []string // Entry must carry at least one of these tags
	Archived      *bool
	HasOutcome    *bool
	ConfidenceMin *int
	ConfidenceMax *int
	From          *time.Time // Inclusive lower bound on CreatedAt
	To            *time.Time // Exclusive upper bound on CreatedAt
}

// Matches reports whether an entry satisfies every constraint in the filter.
// A nil filter matches everything.
func (f *Filter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Archived != nil && e.IsArchived != *f.Archived {
		return false
	}
	if f.HasOutcome != nil && e.HasOutcome() != *f.HasOutcome {
		return false
	}
	if f.ConfidenceMin != nil && e.Confidence < *f.ConfidenceMin {
		return false
	}
	if f.ConfidenceMax != nil && e.Confidence > *f.ConfidenceMax {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.CreatedAt.Before(*f.To) {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range e.Tags {
				if want == have {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
