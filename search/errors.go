// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrCorpusRequired is returned when a search is run without a corpus.
	ErrCorpusRequired = errors.New("corpus required")

	// ErrEmbedding wraps any failure of the embedding backend while encoding a query.
	ErrEmbedding = errors.New("embedding query failed")

	// ErrDimensionMismatch is returned when the query vector and the corpus
	// matrix have different widths.
	ErrDimensionMismatch = errors.New("query dimension does not match corpus")
)
