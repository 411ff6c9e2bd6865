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


// Package storage provides the storage abstraction layer for hindsight.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. Two stores back the retrieval
// subsystem:
//
//   - EntryRepository: the primary record store for journal entries,
//     including the keyword posting index used by hybrid search
//   - EmbeddingRepository: keyed persistence of one vector per entry,
//     tagged with model name and projection version for staleness
//     detection
//
// Public constructors in backend packages return these interfaces to
// enforce abstraction and keep consumers swappable between BadgerDB and
// in-memory test backends.
//
// All repository implementations must be thread-safe, and every method
// accepts a context.Context for cancellation.
package storage
