// Package feedbacklog stores helpfulness votes in an append-only CSV file.
//
// The file starts with the header row timestamp,recipe_id,query,helpful.
// Timestamps are Unix seconds and helpful is 0 or 1.
package feedbacklog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
)

// Header is the first row of every feedback log.
var Header = []string{"timestamp", "recipe_id", "query", "helpful"}

// Log implements storage.FeedbackRepository on a CSV file.
type Log struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ storage.FeedbackRepository = (*Log)(nil)

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// Open returns a log backed by the file at path. The file and its directory
// are created on the first append.
func Open(path string, opts ...Option) *Log {
	l := &Log{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "feedback-log")
	return l
}

// Path returns the file location.
func (l *Log) Path() string {
	return l.path
}

// AppendFeedback writes one record. The row is encoded in memory and
// written with a single append so concurrent writers never interleave.
func (l *Log) AppendFeedback(ctx context.Context, record *core.FeedbackRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return storage.ErrStorageClosed
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating feedback directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening feedback log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(encodeRow(record)); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending feedback: %w", err)
	}
	return f.Sync()
}

// AllFeedback reads every well-formed record. A missing file holds no
// feedback. Malformed rows are skipped with a warning.
func (l *Log) AllFeedback(ctx context.Context) ([]*core.FeedbackRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening feedback log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var records []*core.FeedbackRecord
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				l.logger.Warn("skipping malformed feedback row", "line", perr.Line, "err", err)
				continue
			}
			return nil, fmt.Errorf("reading feedback log: %w", err)
		}
		if line == 1 && isHeader(row) {
			continue
		}
		record, err := decodeRow(row)
		if err != nil {
			l.logger.Warn("skipping malformed feedback row", "line", line, "err", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Close marks the log closed. Later appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && row[0] == Header[0]
}

func encodeRow(record *core.FeedbackRecord) []string {
	helpful := "0"
	if record.Helpful {
		helpful = "1"
	}
	return []string{
		strconv.FormatInt(record.Timestamp.Unix(), 10),
		strconv.FormatInt(int64(record.RecipeID), 10),
		record.Query,
		helpful,
	}
}

func decodeRow(row []string) (*core.FeedbackRecord, error) {
	if len(row) != len(Header) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(Header), len(row))
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	id, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("recipe_id: %w", err)
	}
	var helpful bool
	switch row[3] {
	case "1":
		helpful = true
	case "0":
	default:
		return nil, fmt.Errorf("helpful: unexpected value %q", row[3])
	}
	return &core.FeedbackRecord{
		Timestamp: time.Unix(ts, 0).UTC(),
		RecipeID:  core.RecipeID(id),
		Query:     row[2],
		Helpful:   helpful,
	}, nil
}
