package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/recipefind"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackCall struct {
	id      core.RecipeID
	query   string
	helpful bool
}

type fakeService struct {
	results     []*core.SearchResult
	searchErr   error
	searchCalls int
	lastHealthy bool

	recipes map[core.RecipeID]*core.Recipe

	feedback    []feedbackCall
	feedbackErr error

	top       []*core.FeedbackRanking
	lastLimit int

	stats recipefind.Stats
}

func (f *fakeService) Search(_ context.Context, _ string, healthy bool) ([]*core.SearchResult, error) {
	f.searchCalls++
	f.lastHealthy = healthy
	return f.results, f.searchErr
}

func (f *fakeService) Recipe(id core.RecipeID) (*core.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", core.ErrRecipeNotFound, id)
	}
	return r, nil
}

func (f *fakeService) SubmitFeedback(_ context.Context, id core.RecipeID, query string, helpful bool) error {
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.feedback = append(f.feedback, feedbackCall{id: id, query: query, helpful: helpful})
	return nil
}

func (f *fakeService) TopFeedback(_ context.Context, limit int) ([]*core.FeedbackRanking, error) {
	f.lastLimit = limit
	return f.top, nil
}

func (f *fakeService) Stats() recipefind.Stats {
	return f.stats
}

var squash = &core.Recipe{
	ID:           137739,
	Name:         "arriba baked winter squash mexican style",
	Minutes:      core.IntPtr(55),
	NIngredients: core.IntPtr(7),
	Calories:     core.FloatPtr(51.5),
	Ingredients:  []string{"winter squash", "mexican seasoning"},
	Steps:        []string{"make a choice and proceed with recipe"},
}

var stew = &core.Recipe{
	ID:          50000,
	Name:        "mystery stew",
	Ingredients: []string{"beans"},
	Steps:       []string{"simmer"},
}

func newFake() *fakeService {
	return &fakeService{
		results: []*core.SearchResult{{Recipe: squash, Score: 0.75}, {Recipe: stew, Score: 0.5}},
		recipes: map[core.RecipeID]*core.Recipe{squash.ID: squash, stew.ID: stew},
		top:     []*core.FeedbackRanking{{Recipe: stew, Count: 3}},
		stats:   recipefind.Stats{Generation: "g1", Recipes: 2, Dimensions: 384},
	}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSearchHandler(t *testing.T) {
	fake := newFake()
	s := NewServer(":0", fake)

	w := do(t, s, http.MethodPost, "/search", `{"query": " squash ", "healthy": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode[SearchResponse](t, w)
	assert.Equal(t, "squash", resp.Query)
	assert.True(t, resp.Healthy)
	assert.True(t, fake.lastHealthy)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, core.RecipeID(137739), resp.Results[0].ID)
	assert.Equal(t, float32(0.75), resp.Results[0].Score)

	var raw struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw.Results[1], "calories")
	assert.Nil(t, raw.Results[1]["calories"], "unknown values are null")
	assert.Nil(t, raw.Results[1]["minutes"])
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	fake := newFake()
	s := NewServer(":0", fake)

	for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`} {
		w := do(t, s, http.MethodPost, "/search", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"results": []}`, w.Body.String())
	}
	assert.Equal(t, 0, fake.searchCalls)
}

func TestSearchHandler_HealthyFlag(t *testing.T) {
	fake := newFake()
	s := NewServer(":0", fake)

	for body, want := range map[string]bool{
		`{"query": "x", "healthy": 1}`:      true,
		`{"query": "x", "healthy": "true"}`: true,
		`{"query": "x", "healthy": false}`:  false,
		`{"query": "x"}`:                    false,
	} {
		w := do(t, s, http.MethodPost, "/search", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, want, fake.lastHealthy, body)
	}

	w := do(t, s, http.MethodPost, "/search", `{"query": "x", "healthy": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"embedding failure", fmt.Errorf("%w: %w", search.ErrEmbedding, errors.New("refused")), http.StatusBadGateway},
		{"embedding timeout", fmt.Errorf("%w: %w", search.ErrEmbedding, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"dimension mismatch", search.ErrDimensionMismatch, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			fake.searchErr = tt.err
			w := do(t, NewServer(":0", fake), http.MethodPost, "/search", `{"query": "x"}`)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, w).Error)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		w := do(t, NewServer(":0", newFake()), http.MethodPost, "/search", `{"query":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		w := do(t, NewServer(":0", newFake()), http.MethodPost, "/search", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler(t *testing.T) {
	s := NewServer(":0", newFake())

	w := do(t, s, http.MethodGet, "/recipe/137739", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[RecipeResponse](t, w)
	assert.Equal(t, "arriba baked winter squash mexican style", resp.Recipe.Name)
	assert.Equal(t, []string{"winter squash", "mexican seasoning"}, resp.Recipe.IngredientsList)
	assert.Equal(t, []string{"make a choice and proceed with recipe"}, resp.Recipe.StepsList)
	require.NotNil(t, resp.Recipe.Minutes)
	assert.Equal(t, 55, *resp.Recipe.Minutes)

	w = do(t, s, http.MethodGet, "/recipe/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "not found")

	w = do(t, s, http.MethodGet, "/recipe/squash", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackHandler(t *testing.T) {
	fake := newFake()
	s := NewServer(":0", fake)

	accepted := []string{
		`{"recipe_id": 137739, "query": "squash", "helpful": 1}`,
		`{"recipe_id": "50000", "query": "stew", "helpful": "0"}`,
		`{"recipe_id": 999, "helpful": true}`,
		`{"recipe_id": 7}`,
	}
	for _, body := range accepted {
		w := do(t, s, http.MethodPost, "/feedback", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"status": "success"}`, w.Body.String())
	}

	assert.Equal(t, []feedbackCall{
		{id: 137739, query: "squash", helpful: true},
		{id: 50000, query: "stew", helpful: false},
		{id: 999, query: "", helpful: true},
		{id: 7, query: "", helpful: false},
	}, fake.feedback)

	rejected := []string{
		`{"query": "no id", "helpful": 1}`,
		`{"recipe_id": null, "helpful": 1}`,
		`{"recipe_id": "abc", "helpful": 1}`,
		`{"recipe_id": 1.5, "helpful": 1}`,
		`{"recipe_id": 1, "helpful": 2}`,
		`{"recipe_id": 1, "helpful": "yes"}`,
		`not json`,
	}
	for _, body := range rejected {
		w := do(t, s, http.MethodPost, "/feedback", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Len(t, fake.feedback, len(accepted))
}

func TestFeedbackHandler_StoreFailure(t *testing.T) {
	fake := newFake()
	fake.feedbackErr = errors.New("disk full")
	w := do(t, NewServer(":0", fake), http.MethodPost, "/feedback", `{"recipe_id": 1, "helpful": 1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode[ErrorResponse](t, w).Error)
}

func TestTopFeedbackHandler(t *testing.T) {
	fake := newFake()
	s := NewServer(":0", fake)

	w := do(t, s, http.MethodGet, "/top-feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[TopFeedbackResponse](t, w)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, core.RecipeID(50000), resp.Recipes[0].ID)
	assert.Equal(t, 3, resp.Recipes[0].FeedbackCount)
	assert.Equal(t, 0, fake.lastLimit)

	w = do(t, s, http.MethodGet, "/top-feedback?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, fake.lastLimit)

	w = do(t, s, http.MethodGet, "/top-feedback?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fake.top = nil
	w = do(t, s, http.MethodGet, "/top-feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes": []}`, w.Body.String())
}

func TestHealthHandler(t *testing.T) {
	w := do(t, NewServer(":0", newFake()), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Recipes)
	assert.Equal(t, 384, resp.Dimensions)
	assert.Equal(t, "g1", resp.Generation)
}
