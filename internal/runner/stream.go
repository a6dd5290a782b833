// Package runner drives one conversion: it resolves the configured columns
// against the input header, opens the sink, and streams rows through the
// transformer in input order.
package runner

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"falcon/internal/config"
	"falcon/internal/metrics"
	"falcon/internal/storage"
	"falcon/internal/transformer"
)

// RowReader yields the input header and then data rows until io.EOF.
// The returned row may be reused by the next call.
type RowReader interface {
	Header() []string
	Next() (*transformer.Row, error)
}

// OpenWriter opens the sink. Stream calls it only after the configuration has
// been resolved against the header, so a bad configuration leaves no output
// behind.
type OpenWriter func(ctx context.Context) (storage.Writer, error)

// Stats summarizes a run.
type Stats struct {
	RowsRead    int64         `json:"rows_read"`
	RowsWritten int64         `json:"rows_written"`
	RowsSkipped int64         `json:"rows_skipped"`
	Duration    time.Duration `json:"duration_ns"`
}

// Stream copies rows from rows to the writer returned by open.
//
// Data rows are numbered from 1. A row is written when its number lies inside
// [cfg.LineStart, cfg.LineEnd] (either bound may be unset). Row 1 always
// settles column inference, even when it is filtered out. Once the row number
// passes LineEnd, no further row is read. Any error is terminal; rows already
// written stay written and the writer is always closed.
func Stream(ctx context.Context, cfg config.Config, rows RowReader, open OpenWriter, log *zap.Logger) (stats Stats, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordRows("read", stats.RowsRead)
		metrics.RecordRows("written", stats.RowsWritten)
		metrics.RecordRows("skipped", stats.RowsSkipped)
		metrics.RecordStep("stream", err, stats.Duration)
	}()

	resolveStart := time.Now()
	declared, err := transformer.Resolve(rows.Header(), cfg, log)
	metrics.RecordStep("resolve", err, time.Since(resolveStart))
	if err != nil {
		return stats, err
	}

	w, err := open(ctx)
	if err != nil {
		return stats, err
	}
	defer func() {
		err = multierr.Append(err, w.Close(ctx))
	}()

	names := make([]string, len(declared))
	for i, d := range declared {
		names[i] = d.Name
	}
	if err := w.WriteHeader(ctx, names); err != nil {
		return stats, err
	}

	var cols []transformer.Column
	out := make([]string, len(declared))
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line := int(stats.RowsRead) + 1
		if cfg.LineEnd != nil && line > *cfg.LineEnd {
			log.Debug("stream: line_end reached", zap.Int("line_end", *cfg.LineEnd))
			break
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.RowsRead++

		if cols == nil {
			if cols, err = transformer.Infer(declared, row.V, cfg.FractionDigits); err != nil {
				return stats, err
			}
			logInferred(log, cols)
		}

		if cfg.LineStart != nil && line < *cfg.LineStart {
			stats.RowsSkipped++
			continue
		}

		if err := transformer.ApplyRow(cols, row.V, out, line); err != nil {
			return stats, err
		}
		if err := w.WriteRow(ctx, out); err != nil {
			return stats, err
		}
		stats.RowsWritten++
	}

	log.Info("stream: finished",
		zap.Int64("read", stats.RowsRead),
		zap.Int64("written", stats.RowsWritten),
		zap.Int64("skipped", stats.RowsSkipped),
	)
	return stats, nil
}

func logInferred(log *zap.Logger, cols []transformer.Column) {
	if ce := log.Check(zap.DebugLevel, "stream: inferred column"); ce == nil {
		return
	}
	for _, c := range cols {
		log.Debug("stream: inferred column",
			zap.String("name", c.Name),
			zap.Bool("has_digits", c.HasDigits),
			zap.Int("digits", c.Digits),
			zap.Stringer("manipulate", c.Manipulate.Kind),
		)
	}
}
