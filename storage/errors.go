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


package storage

import "errors"

var (
	// ErrNotFound is returned when no record exists under a key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a recipe id is written twice into one store.
	ErrDuplicateKey = errors.New("duplicate recipe id")

	// ErrStorageClosed is returned by any operation on a closed store.
	ErrStorageClosed = errors.New("store is closed")

	// ErrSerializationFailed is returned when a stored value cannot be decoded.
	ErrSerializationFailed = errors.New("malformed record")

	// ErrTruncatedData is returned when a stored value ends before its encoding does.
	ErrTruncatedData = errors.New("truncated record")
)
