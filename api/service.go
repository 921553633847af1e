package api

import (
	"context"

	"github.com/poiesic/recipefind"
	"github.com/poiesic/recipefind/core"
)

// Service is what the handlers need from the index. *recipefind.Index implements it.
type Service interface {
	Search(ctx context.Context, query string, healthy bool) ([]*core.SearchResult, error)
	Recipe(id core.RecipeID) (*core.Recipe, error)
	SubmitFeedback(ctx context.Context, id core.RecipeID, query string, helpful bool) error
	TopFeedback(ctx context.Context, limit int) ([]*core.FeedbackRanking, error)
	Stats() recipefind.Stats
}

var _ Service = (*recipefind.Index)(nil)
