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


package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poiesic/hindsight/ai"
)

// client is a thin wrapper over the native Ollama HTTP API.
// It performs single requests; retry policy lives in the Embedder.
type client struct {
	host       string
	httpClient *http.Client
}

func newClient(host string, httpClient *http.Client) *client {
	return &client{host: host, httpClient: httpClient}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embeddingResponse decodes into json.RawMessage first so that a reply
// with a missing or non-array "embedding" field can be told apart from
// a transport error.
type embeddingResponse struct {
	Embedding json.RawMessage `json:"embedding"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// embed requests a vector for one prompt via POST /api/embeddings.
// A reply whose "embedding" field is missing or not an array of numbers
// returns ai.ErrMalformedResponse.
func (c *client) embed(ctx context.Context, model, prompt string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: model, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request returned status %d", resp.StatusCode)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	if decoded.Embedding == nil {
		return nil, fmt.Errorf("%w: missing embedding field", ai.ErrMalformedResponse)
	}

	var vector []float32
	if err := json.Unmarshal(decoded.Embedding, &vector); err != nil {
		return nil, fmt.Errorf("%w: embedding field is not a number array", ai.ErrMalformedResponse)
	}

	return vector, nil
}

// listModels returns the names of models loaded on the server
// via GET /api/tags.
func (c *client) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tags request returned status %d", resp.StatusCode)
	}

	var decoded tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	names := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
