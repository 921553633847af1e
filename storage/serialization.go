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

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recipefind/core"
)

// Records are encoded field by field with MUS primitives. Nullable numbers
// carry a presence flag followed by the value when present. Timestamps are
// stored as Unix microseconds.

// encoder accumulates the size of a record and then writes it.
type encoder struct {
	bs []byte
	n  int
}

func (e *encoder) int64(v int64) {
	if e.bs == nil {
		e.n += varint.Int64.Size(v)
		return
	}
	e.n += varint.Int64.Marshal(v, e.bs[e.n:])
}

func (e *encoder) int(v int) {
	e.int64(int64(v))
}

func (e *encoder) bool(v bool) {
	if e.bs == nil {
		e.n += ord.Bool.Size(v)
		return
	}
	e.n += ord.Bool.Marshal(v, e.bs[e.n:])
}

func (e *encoder) float64(v float64) {
	if e.bs == nil {
		e.n += raw.Float64.Size(v)
		return
	}
	e.n += raw.Float64.Marshal(v, e.bs[e.n:])
}

func (e *encoder) string(v string) {
	if e.bs == nil {
		e.n += ord.String.Size(v)
		return
	}
	e.n += ord.String.Marshal(v, e.bs[e.n:])
}

func (e *encoder) strings(vs []string) {
	e.int(len(vs))
	for _, v := range vs {
		e.string(v)
	}
}

func (e *encoder) optInt(v *int) {
	e.bool(v != nil)
	if v != nil {
		e.int(*v)
	}
}

func (e *encoder) optFloat64(v *float64) {
	e.bool(v != nil)
	if v != nil {
		e.float64(*v)
	}
}

func (e *encoder) time(t time.Time) {
	if t.IsZero() {
		e.int64(0)
		return
	}
	e.int64(t.UnixMicro())
}

// encode runs fn twice, first to size the buffer and then to fill it.
func encode(fn func(e *encoder)) []byte {
	sizer := &encoder{}
	fn(sizer)
	w := &encoder{bs: make([]byte, sizer.n)}
	fn(w)
	return w.bs[:w.n]
}

// decoder reads fields in order and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: at byte %d: %w", ErrSerializationFailed, d.n, err)
	}
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) int() int {
	return int(d.int64())
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.bs[d.n:])
	d.n += n
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) float64() float64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(d.bs[d.n:])
	d.n += n
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) strings() []string {
	count := d.int()
	if d.err != nil {
		return nil
	}
	// every string takes at least one byte
	if count < 0 || count > len(d.bs)-d.n {
		d.fail(ErrTruncatedData)
		return nil
	}
	out := make([]string, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		out = append(out, d.string())
	}
	return out
}

func (d *decoder) optInt() *int {
	if !d.bool() {
		return nil
	}
	v := d.int()
	return &v
}

func (d *decoder) optFloat64() *float64 {
	if !d.bool() {
		return nil
	}
	v := d.float64()
	return &v
}

func (d *decoder) time() time.Time {
	us := d.int64()
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.n != len(d.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(d.bs)-d.n)
	}
	return nil
}

// MarshalRecipeID serializes a RecipeID to bytes.
func MarshalRecipeID(id core.RecipeID) []byte {
	return encode(func(e *encoder) { e.int64(int64(id)) })
}

// UnmarshalRecipeID deserializes a RecipeID from bytes.
func UnmarshalRecipeID(data []byte) (core.RecipeID, error) {
	d := &decoder{bs: data}
	id := core.RecipeID(d.int64())
	return id, d.finish()
}

// MarshalRecipe serializes a Recipe to bytes.
func MarshalRecipe(r *core.Recipe) []byte {
	return encode(func(e *encoder) {
		e.int64(int64(r.ID))
		e.string(r.Name)
		e.optInt(r.Minutes)
		e.optInt(r.NIngredients)
		e.optFloat64(r.Calories)
		e.strings(r.Ingredients)
		e.strings(r.Steps)
	})
}

// UnmarshalRecipe deserializes a Recipe from bytes.
func UnmarshalRecipe(data []byte) (*core.Recipe, error) {
	d := &decoder{bs: data}
	r := &core.Recipe{
		ID:           core.RecipeID(d.int64()),
		Name:         d.string(),
		Minutes:      d.optInt(),
		NIngredients: d.optInt(),
		Calories:     d.optFloat64(),
		Ingredients:  d.strings(),
		Steps:        d.strings(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return r, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(m *core.Manifest) []byte {
	return encode(func(e *encoder) {
		e.int(m.Count)
		e.int(m.Dimensions)
		e.string(m.Fingerprint)
		e.string(m.EmbeddingModel)
		e.time(m.BuiltAt)
	})
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	d := &decoder{bs: data}
	m := &core.Manifest{
		Count:          d.int(),
		Dimensions:     d.int(),
		Fingerprint:    d.string(),
		EmbeddingModel: d.string(),
		BuiltAt:        d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalFeedback serializes a FeedbackRecord to bytes.
func MarshalFeedback(f *core.FeedbackRecord) []byte {
	return encode(func(e *encoder) {
		e.time(f.Timestamp)
		e.int64(int64(f.RecipeID))
		e.string(f.Query)
		e.bool(f.Helpful)
	})
}

// UnmarshalFeedback deserializes a FeedbackRecord from bytes.
func UnmarshalFeedback(data []byte) (*core.FeedbackRecord, error) {
	d := &decoder{bs: data}
	f := &core.FeedbackRecord{
		Timestamp: d.time(),
		RecipeID:  core.RecipeID(d.int64()),
		Query:     d.string(),
		Helpful:   d.bool(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return f, nil
}
