package badger

import (
	"encoding/binary"

	"github.com/poiesic/recipefind/core"
)

// Key prefixes for different data types
const (
	recipePrefix   = "recipe:"
	recipeIDPrefix = "recipeid:"
	recipeCountKey = "recipecount"
	manifestKey    = "manifest"
	feedbackPrefix = "feedback:"
	feedbackIDSeq  = "feedbackseq"
)

// makeUint64Key appends v to prefix in BigEndian order so lexicographic
// key order matches numeric order.
func makeUint64Key(prefix string, v uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], v)
	return buf
}

// makeRecipeKey generates the key of the recipe at a corpus position.
func makeRecipeKey(position int) []byte {
	return makeUint64Key(recipePrefix, uint64(position))
}

// makeRecipeIDKey generates the key of the id to position index.
func makeRecipeIDKey(id core.RecipeID) []byte {
	return makeUint64Key(recipeIDPrefix, uint64(id))
}

// makeFeedbackKey generates the key of a feedback record by sequence number.
func makeFeedbackKey(seq uint64) []byte {
	return makeUint64Key(feedbackPrefix, seq)
}

func encodePosition(position int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(position))
	return buf
}

func decodePosition(val []byte) (int, error) {
	if len(val) != 8 {
		return 0, errTruncatedPosition
	}
	return int(binary.BigEndian.Uint64(val)), nil
}
