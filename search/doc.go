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


// Package search answers free-text recipe queries against a loaded corpus.
//
// A query runs through a fixed sequence of stages:
//   - the query is embedded and normalized to unit length
//   - every corpus row is scored by dot product and the best
//     CandidatePoolSize positions are kept (Rank)
//   - candidates sharing fewer than MinOverlap ingredients with the
//     comma-separated query tokens are dropped (FilterByOverlap)
//   - when the caller asks for healthier results the survivors are
//     stably re-ordered by calories (PreferHealthier)
//   - the list is cut to TopK and joined with the recipe records
//
// The order of the stages is part of the contract: running the health sort
// before the overlap filter, or on a larger pool, changes results.
package search
