package storage

import "context"

// DefaultBatchSize is used by database sinks when the config leaves it unset.
const DefaultBatchSize = 500

// FlushFunc persists one batch of rows.
type FlushFunc func(ctx context.Context, rows [][]any) error

// Batch buffers rows for database sinks and hands them to a FlushFunc once
// full. It copies incoming rows, so callers may reuse their slices.
type Batch struct {
	size  int
	rows  [][]any
	flush FlushFunc
}

func NewBatch(size int, flush FlushFunc) *Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batch{size: size, rows: make([][]any, 0, size), flush: flush}
}

// Add queues row and flushes when the batch is full.
func (b *Batch) Add(ctx context.Context, row []string) error {
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = v
	}
	b.rows = append(b.rows, vals)
	if len(b.rows) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes any queued rows. It is a no-op on an empty batch.
func (b *Batch) Flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	err := b.flush(ctx, b.rows)
	b.rows = b.rows[:0]
	return err
}

// Len returns the number of queued rows.
func (b *Batch) Len() int { return len(b.rows) }

// Chunk splits rows so that no chunk binds more than maxParams parameters.
func Chunk(rows [][]any, columns, maxParams int) [][][]any {
	if len(rows) == 0 {
		return nil
	}
	per := 1
	if columns > 0 && maxParams > columns {
		per = maxParams / columns
	}
	out := make([][][]any, 0, (len(rows)+per-1)/per)
	for len(rows) > per {
		out = append(out, rows[:per])
		rows = rows[per:]
	}
	return append(out, rows)
}
