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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecipe indicates a Recipe failed validation.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrEmptyName indicates the recipe Name field is empty.
	ErrEmptyName = errors.New("recipe name cannot be empty")

	// ErrNoIngredients indicates the recipe has no ingredients.
	ErrNoIngredients = errors.New("recipe must have at least one ingredient")

	// ErrNoSteps indicates the recipe has no steps.
	ErrNoSteps = errors.New("recipe must have at least one step")

	// ErrInvalidFeedback indicates a FeedbackRecord failed validation.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrInvalidTimestamp indicates a timestamp is zero or in the future.
	ErrInvalidTimestamp = errors.New("timestamp must be set and not in the future")

	// ErrRecipeNotFound indicates no recipe with the requested id exists in the corpus.
	ErrRecipeNotFound = errors.New("recipe not found")
)
