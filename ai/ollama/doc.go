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


// Package ollama implements the ai interfaces against a local Ollama
// server's native API: /api/embeddings for vectors and /api/tags for
// availability probing.
//
// Requests are retried with linear backoff. A 200 reply whose payload
// lacks a usable embedding is treated as a transient failure, since a
// mid-load Ollama instance can answer before the model is ready.
package ollama
