package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/hindsight/ai"
)

// Prober implements ai.Prober against the native Ollama API.
type Prober struct {
	client *client
	logger *slog.Logger
}

// newProber is an internal constructor that returns the concrete type.
func newProber(config *ai.Config) (*Prober, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: config.RequestTimeout}

	return &Prober{
		client: newClient(config.Host, httpClient),
		logger: slog.Default().With("component", "ollama-prober"),
	}, nil
}

// NewProber creates a new prober using the provided configuration.
func NewProber(config *ai.Config) (ai.Prober, error) {
	return newProber(config)
}

// IsServiceAvailable reports whether the Ollama server answers its
// model-listing endpoint.
func (p *Prober) IsServiceAvailable(ctx context.Context) bool {
	_, err := p.client.listModels(ctx)
	if err != nil {
		p.logger.Debug("service probe failed", "err", err)
		return false
	}
	return true
}

// IsModelAvailable reports whether the named model is loaded. A loaded
// model matches by exact name or by tag prefix: asking for "nomic-embed-text"
// matches a loaded "nomic-embed-text:latest".
func (p *Prober) IsModelAvailable(ctx context.Context, model string) bool {
	names, err := p.client.listModels(ctx)
	if err != nil {
		p.logger.Debug("model probe failed", "err", err)
		return false
	}

	for _, name := range names {
		if name == model || strings.HasPrefix(name, model+":") {
			return true
		}
	}
	return false
}
