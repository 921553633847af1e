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

import (
	"fmt"
	"time"
)

// ValidateRecipe checks the minimum a recipe needs to be a useful search
// result: a name, at least one ingredient and at least one step.
func ValidateRecipe(recipe *Recipe) error {
	if recipe == nil {
		return fmt.Errorf("%w: recipe is nil", ErrInvalidRecipe)
	}

	if recipe.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, ErrEmptyName)
	}

	if len(recipe.Ingredients) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, ErrNoIngredients)
	}

	if len(recipe.Steps) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecipe, ErrNoSteps)
	}

	return nil
}

// ValidateFeedback checks a feedback record before it is appended.
// Recipe existence is deliberately not checked.
func ValidateFeedback(record *FeedbackRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidFeedback)
	}

	if record.Timestamp.IsZero() || !IsValidTimestamp(record.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp reports whether ts is not in the future.
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
