package mock

import (
	"github.com/poiesic/hindsight/ai"
)

// MockProvider bundles a MockEmbedder and MockProber behind ai.Provider.
type MockProvider struct {
	embedder *MockEmbedder
	prober   *MockProber
	model    string
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		prober:   NewMockProber(),
		model:    "mock-embed",
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Prober returns the mock prober.
func (p *MockProvider) Prober() ai.Prober {
	return p.prober
}

// ModelName returns the configured model identifier.
func (p *MockProvider) ModelName() string {
	return p.model
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockProber returns the concrete prober for test assertions.
func (p *MockProvider) GetMockProber() *MockProber {
	return p.prober
}

// SetModelName overrides the reported model identifier.
func (p *MockProvider) SetModelName(model string) {
	p.model = model
}
