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


// Package autoembed keeps embeddings synchronized with journal entries
// without blocking writes. Entry saves and updates schedule generation on
// a single background worker; failed generations enter an in-memory retry
// queue with escalating backoff, drained on a fixed tick.
//
// The retry queue does not survive restarts. ScanForMissing reconciles on
// startup by queueing every entry whose stored embedding is missing or
// stale for the current model and projection version.
package autoembed
