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


// Package storage provides the storage abstraction layer for recipefind.
//
// This package defines repository interfaces that decouple storage
// implementation from the index and feedback logic:
//
//   - RecipeRepository: cleaned recipe records and the generation manifest
//   - FeedbackRepository: the append-only helpfulness log
//
// Implementations live in sub-packages:
//
//   - storage/badger: BadgerDB-backed recipe and feedback repositories
//   - storage/feedbacklog: CSV feedback log
//   - storage/matrix: the binary embedding matrix file
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types:
//
//	repo, err := badger.NewRecipeRepository(path)  // returns storage.RecipeRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Serialization
//
// Records are stored in the compact MUS binary format. See MarshalRecipe,
// MarshalManifest and MarshalFeedback.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
