// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let index builds and searches run without a model runtime and
// give tests full control over the vectors they see.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{1, 0, 0}, nil
//	    })
//
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic unit vectors derived from a hash of the
// text, so identical texts always embed identically.
package mock
