package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/poiesic/recipefind/ai"
)

// maxPipelineBatch bounds the texts handed to one RunPipeline call.
const maxPipelineBatch = 32

// ErrModelNotFound is returned when no model directory with tokenizer.json exists.
var ErrModelNotFound = errors.New("embedding model not found")

// Embedder implements ai.Embedder with a hugot feature extraction pipeline.
// The session is created on first use. Inference is serialized because the
// ONNX runtime is not safe for concurrent calls.
type Embedder struct {
	modelDir string
	logger   *slog.Logger

	mu        sync.Mutex
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	modelPath string
	closed    bool
}

func newEmbedder(modelDir string) *Embedder {
	return &Embedder{
		modelDir: modelDir,
		logger:   slog.Default().With("component", "local-embedder"),
	}
}

// FindModel returns the first subdirectory of dir holding tokenizer.json.
func FindModel(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrModelNotFound, dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(candidate, "tokenizer.json")); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no subdirectory of %s contains tokenizer.json", ErrModelNotFound, dir)
}

// initLocked must be called with e.mu held.
func (e *Embedder) initLocked() error {
	if e.closed {
		return errors.New("local embedder is closed")
	}
	if e.pipeline != nil {
		return nil
	}

	modelPath, err := FindModel(e.modelDir)
	if err != nil {
		return err
	}

	session, err := newSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "recipe-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	e.session = session
	e.pipeline = pipeline
	e.modelPath = modelPath
	e.logger.Info("loaded embedding model", "path", modelPath)
	return nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxPipelineBatch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+maxPipelineBatch, len(texts))

		result, err := e.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("run embedding pipeline: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("pipeline returned %d vectors for %d texts", len(result.Embeddings), end-start)
		}
		out = append(out, result.Embeddings...)
	}

	e.logger.Debug("embedded texts", "count", len(texts))
	return out, nil
}

// Close destroys the session if one was created.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.pipeline = nil
	return err
}

var _ ai.Embedder = (*Embedder)(nil)
