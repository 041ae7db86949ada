package importer

import (
	"context"
	"fmt"
)

// Statement is one parametrized "insert or replace" operation destined for
// the store. Args bind positionally to $1..$n placeholders; nil argument
// values are written as NULL.
type Statement struct {
	SQL  string
	Args []any
}

// Store is the write contract the pipeline drives. Batch applies an ordered
// list of statements atomically as one unit. The in-process implementation
// sits on the pgx pool; the bulkimport CLI substitutes a psql shell-out.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Batch(ctx context.Context, stmts []Statement) error
}

// BatchWriter buffers statements into fixed-size batches and submits each
// full batch to the store in fill order, so that at most one batch is held
// in memory at a time.
type BatchWriter struct {
	store   Store
	pending []Statement
	size    int
}

// NewBatchWriter creates a BatchWriter submitting batches of the given size.
func NewBatchWriter(store Store, size int) *BatchWriter {
	return &BatchWriter{
		store:   store,
		size:    size,
		pending: make([]Statement, 0, size),
	}
}

// Add buffers one statement and submits the whole buffer once it reaches the
// configured size.
func (w *BatchWriter) Add(ctx context.Context, stmt Statement) error {
	w.pending = append(w.pending, stmt)
	if len(w.pending) < w.size {
		return nil
	}
	return w.Flush(ctx)
}

// Flush submits any buffered statements as one batch. The buffer is cleared
// even when submission fails, so a caller that tolerates per-batch failures
// can carry on with the next batch.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	stmts := w.pending
	w.pending = make([]Statement, 0, w.size)

	if err := w.store.Batch(ctx, stmts); err != nil {
		return fmt.Errorf("failed to submit batch of %d statements: %w", len(stmts), err)
	}
	return nil
}

// Pending reports how many statements are currently buffered.
func (w *BatchWriter) Pending() int {
	return len(w.pending)
}
