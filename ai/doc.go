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


// Package ai defines the embedding service abstractions used for semantic
// search: Embedder for vector generation, Prober for availability checks,
// and Provider for lifecycle management.
//
// Two implementations ship with the module: ai/ollama talks to a local
// Ollama server over its native API, and ai/openai talks to any
// OpenAI-compatible endpoint. Tests use ai/mock.
package ai
