package mock

import (
	"context"
	"sync"
)

// MockProber is a test double for ai.Prober with switchable availability.
// Safe for concurrent use.
type MockProber struct {
	mu               sync.Mutex
	serviceAvailable bool
	modelAvailable   bool
	serviceProbes    int
	modelProbes      int
}

// NewMockProber creates a prober that reports everything available.
func NewMockProber() *MockProber {
	return &MockProber{
		serviceAvailable: true,
		modelAvailable:   true,
	}
}

// SetServiceAvailable switches the service reachability answer.
func (p *MockProber) SetServiceAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serviceAvailable = available
}

// SetModelAvailable switches the model availability answer.
func (p *MockProber) SetModelAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelAvailable = available
}

// IsServiceAvailable reports the configured service state.
func (p *MockProber) IsServiceAvailable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serviceProbes++
	return p.serviceAvailable
}

// IsModelAvailable reports the configured model state. Always false when
// the service is down, matching real prober behavior.
func (p *MockProber) IsModelAvailable(ctx context.Context, model string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelProbes++
	return p.serviceAvailable && p.modelAvailable
}

// ServiceProbeCount returns how many times IsServiceAvailable was called.
func (p *MockProber) ServiceProbeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.serviceProbes
}

// ModelProbeCount returns how many times IsModelAvailable was called.
func (p *MockProber) ModelProbeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modelProbes
}
