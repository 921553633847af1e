package core

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint returns a BLAKE2b digest of an id sequence. Two artifacts built
// from the same corpus share a fingerprint only if their rows are in the same order.
func Fingerprint(ids []RecipeID) string {
	h, _ := blake2b.New(32, nil)
	var buf [8]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
