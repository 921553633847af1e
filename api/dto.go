package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/recipefind/core"
)

var (
	errInvalidRecipeID = errors.New("recipe_id must be an integer")
	errInvalidBool     = errors.New("expected true, false, 0 or 1")
)

// flexibleID accepts a JSON number or a numeric string.
type flexibleID core.RecipeID

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidRecipeID
		}
		s = strings.TrimSpace(s)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errInvalidRecipeID
	}
	*f = flexibleID(id)
	return nil
}

// flexibleBool accepts true/false and 0/1, bare or quoted.
type flexibleBool bool

func (f *flexibleBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidBool
		}
		s = strings.ToLower(strings.TrimSpace(s))
	}
	switch s {
	case "null":
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	default:
		return fmt.Errorf("%w, got %s", errInvalidBool, data)
	}
	return nil
}

type searchRequest struct {
	Query   string       `json:"query"`
	Healthy flexibleBool `json:"healthy"`
}

// ResultItem is one search hit.
type ResultItem struct {
	ID           core.RecipeID `json:"id"`
	Name         string        `json:"name"`
	Minutes      *int          `json:"minutes"`
	NIngredients *int          `json:"n_ingredients"`
	Calories     *float64      `json:"calories"`
	Score        float32       `json:"score"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Results []ResultItem `json:"results"`
	Query   string       `json:"query"`
	Healthy bool         `json:"healthy"`
}

// FullRecipe is a recipe with its ingredient and step lists.
type FullRecipe struct {
	ID              core.RecipeID `json:"id"`
	Name            string        `json:"name"`
	Minutes         *int          `json:"minutes"`
	NIngredients    *int          `json:"n_ingredients"`
	Calories        *float64      `json:"calories"`
	IngredientsList []string      `json:"ingredients_list"`
	StepsList       []string      `json:"steps_list"`
}

// RecipeResponse is the body of GET /recipe/{id}.
type RecipeResponse struct {
	Recipe FullRecipe `json:"recipe"`
}

type feedbackRequest struct {
	RecipeID *flexibleID  `json:"recipe_id"`
	Query    string       `json:"query"`
	Helpful  flexibleBool `json:"helpful"`
}

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status string `json:"status"`
}

// FeedbackRankedItem is one entry of GET /top-feedback.
type FeedbackRankedItem struct {
	ID            core.RecipeID `json:"id"`
	Name          string        `json:"name"`
	Minutes       *int          `json:"minutes"`
	NIngredients  *int          `json:"n_ingredients"`
	Calories      *float64      `json:"calories"`
	FeedbackCount int           `json:"feedback_count"`
}

// TopFeedbackResponse is the body of GET /top-feedback.
type TopFeedbackResponse struct {
	Recipes []FeedbackRankedItem `json:"recipes"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Recipes    int    `json:"recipes"`
	Dimensions int    `json:"dimensions"`
	Generation string `json:"generation"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newResultItem(r *core.SearchResult) ResultItem {
	return ResultItem{
		ID:           r.Recipe.ID,
		Name:         r.Recipe.Name,
		Minutes:      r.Recipe.Minutes,
		NIngredients: r.Recipe.NIngredients,
		Calories:     r.Recipe.Calories,
		Score:        r.Score,
	}
}

func newFullRecipe(r *core.Recipe) FullRecipe {
	return FullRecipe{
		ID:              r.ID,
		Name:            r.Name,
		Minutes:         r.Minutes,
		NIngredients:    r.NIngredients,
		Calories:        r.Calories,
		IngredientsList: nonNil(r.Ingredients),
		StepsList:       nonNil(r.Steps),
	}
}

func newFeedbackRankedItem(r *core.FeedbackRanking) FeedbackRankedItem {
	return FeedbackRankedItem{
		ID:            r.Recipe.ID,
		Name:          r.Recipe.Name,
		Minutes:       r.Recipe.Minutes,
		NIngredients:  r.Recipe.NIngredients,
		Calories:      r.Recipe.Calories,
		FeedbackCount: r.Count,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
