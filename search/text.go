package search

import "strings"

// QueryTokens splits a query into ingredient tokens: comma-separated,
// trimmed, lowercased, empties dropped.
func QueryTokens(query string) []string {
	parts := strings.Split(query, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		cleaned := strings.ToLower(strings.TrimSpace(part))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// ingredientSet returns the trimmed, lowercased ingredients as a set.
func ingredientSet(ingredients []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ingredients))
	for _, ingredient := range ingredients {
		set[strings.ToLower(strings.TrimSpace(ingredient))] = struct{}{}
	}
	return set
}

// TokenOverlap counts the distinct query tokens that name one of the ingredients.
func TokenOverlap(tokens []string, ingredients []string) int {
	if len(tokens) == 0 || len(ingredients) == 0 {
		return 0
	}
	have := ingredientSet(ingredients)
	seen := make(map[string]struct{}, len(tokens))
	overlap := 0
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := have[token]; ok {
			overlap++
		}
	}
	return overlap
}
