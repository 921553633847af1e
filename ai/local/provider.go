package local

import (
	"path/filepath"

	"github.com/poiesic/recipefind/ai"
)

// Provider implements ai.AIProvider with an in-process model.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
}

// NewProvider validates the config and checks that a model is present.
// The model itself is loaded on the first embedding call.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := FindModel(config.ModelDir); err != nil {
		return nil, err
	}
	return &Provider{
		config:   config,
		embedder: newEmbedder(config.ModelDir),
	}, nil
}

// Embedder returns the local embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Model returns the model directory name, e.g. all-MiniLM-L6-v2.
func (p *Provider) Model() string {
	path, err := FindModel(p.config.ModelDir)
	if err != nil {
		return p.config.EmbeddingModel
	}
	return filepath.Base(path)
}

// Close releases the inference session.
func (p *Provider) Close() error {
	return p.embedder.Close()
}
