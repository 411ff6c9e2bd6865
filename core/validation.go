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


package core

import (
	"fmt"
	"time"
)

// ValidateEntry checks that an Entry is well-formed before persistence.
// Returns a wrapped ErrInvalidEntry describing the first violation found.
func ValidateEntry(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidEntry)
	}
	if e.Problem == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyProblem)
	}
	if e.Confidence != 0 && (e.Confidence < 1 || e.Confidence > 10) {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidEntry, ErrInvalidConfidence, e.Confidence)
	}
	if !e.CreatedAt.IsZero() && e.CreatedAt.After(time.Now().UTC().Add(time.Minute)) {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrInvalidTimestamp)
	}
	return nil
}

// ValidateEmbeddingRecord checks that an EmbeddingRecord is well-formed.
func ValidateEmbeddingRecord(r *EmbeddingRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidEmbedding)
	}
	if r.EntryId == 0 {
		return fmt.Errorf("%w: entry id required", ErrInvalidEmbedding)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyVector)
	}
	if r.ModelName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyModelName)
	}
	return nil
}
