package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recipefind/ai"
	"github.com/poiesic/recipefind/core"
)

// batchEncoder embeds texts in fixed-size batches on a worker pool.
// Output order always matches input order.
type batchEncoder struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	retry     RetryPolicy
	progress  *ProgressTracker
	logger    *slog.Logger
}

// maxRetryDelay caps the wait between two attempts of one batch.
const maxRetryDelay = 30 * time.Second

// encode returns one unit vector per text.
func (e *batchEncoder) encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if err := e.encodeBatch(ctx, texts[start:end], vectors[start:end]); err != nil {
				cancel(fmt.Errorf("batch %d-%d: %w", start, end, err))
			}
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("submitting batch: %w", err))
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return vectors, nil
}

// encodeBatch fills out with normalized vectors for texts.
func (e *batchEncoder) encodeBatch(ctx context.Context, texts []string, out [][]float32) error {
	embeddings, err := Retry(ctx, e.retry, e.logger, func(ctx context.Context) ([][]float32, error) {
		vectors, err := e.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
		}
		return vectors, nil
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", e.retry.MaxAttempts, err)
	}

	for i, v := range embeddings {
		out[i] = core.NormalizeVector(v)
	}
	e.progress.Increment(len(texts))
	e.logger.Debug("encoded batch", "size", len(texts))
	return nil
}
