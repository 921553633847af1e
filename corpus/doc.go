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


// Package corpus holds the immutable, in-memory view of one index generation.
//
// A generation is a directory under <data>/index/generations containing the
// cleaned recipes (a badger store under recipes/) and the embedding matrix
// (embeddings.bin). The CURRENT file in <data>/index names the published
// generation. Publishing replaces CURRENT atomically, so readers see either
// the old generation or the new one and never a mixture.
//
// A loaded Corpus is never modified and may be shared by any number of
// goroutines without locking.
package corpus
