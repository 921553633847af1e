package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
)

// FeedbackRepository implements storage.FeedbackRepository for BadgerDB.
// Records are keyed by a monotonically increasing sequence number, so key
// order is append order.
type FeedbackRepository struct {
	backend *Backend
	owned   bool
	idSeq   *badger.Sequence
}

var _ storage.FeedbackRepository = (*FeedbackRepository)(nil)

// NewFeedbackRepository creates a FeedbackRepository on an open backend.
// Closing the repository releases its sequence and leaves the backend open.
func NewFeedbackRepository(backend *Backend) (*FeedbackRepository, error) {
	idSeq, err := backend.GetSequence(feedbackIDSeq)
	if err != nil {
		return nil, err
	}
	return &FeedbackRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// OpenFeedbackRepository opens the database at path and returns a
// repository that owns it.
func OpenFeedbackRepository(path string) (storage.FeedbackRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo, err := NewFeedbackRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.owned = true
	return repo, nil
}

// Close releases the sequence and, when owned, the backend.
func (r *FeedbackRepository) Close() error {
	err := r.idSeq.Release()
	if r.owned {
		if cerr := r.backend.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// AppendFeedback durably appends one record.
func (r *FeedbackRepository) AppendFeedback(ctx context.Context, record *core.FeedbackRecord) error {
	seq, err := r.idSeq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if seq == 0 {
		if seq, err = r.idSeq.Next(); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFeedbackKey(seq), storage.MarshalFeedback(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AllFeedback returns every record in append order.
func (r *FeedbackRepository) AllFeedback(ctx context.Context) ([]*core.FeedbackRecord, error) {
	var records []*core.FeedbackRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		records, err = scanPrefix(tx, []byte(feedbackPrefix), storage.UnmarshalFeedback)
		return err
	}, false)
	return records, err
}
