package corpus

import "errors"

var (
	// ErrIndexMissing indicates no published index exists yet.
	ErrIndexMissing = errors.New("index not found; run `recipefind build` first")

	// ErrIndexCorrupt indicates the artifacts of a generation disagree.
	ErrIndexCorrupt = errors.New("index artifacts are inconsistent")
)
