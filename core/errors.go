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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrEmptyProblem indicates the Problem field is empty.
	ErrEmptyProblem = errors.New("problem statement cannot be empty")

	// ErrInvalidConfidence indicates a Confidence value outside 0-10.
	ErrInvalidConfidence = errors.New("confidence must be between 1 and 10")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidEmbedding indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbedding = errors.New("invalid embedding record")

	// ErrEmptyVector indicates an EmbeddingRecord carries no vector.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")

	// ErrEmptyModelName indicates an EmbeddingRecord has no model name.
	ErrEmptyModelName = errors.New("embedding model name cannot be empty")
)
