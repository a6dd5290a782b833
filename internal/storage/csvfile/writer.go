// Package csvfile writes the output table as comma-delimited text, compressed
// when the path ends in .gz, .zst or .lz4.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"falcon/internal/codec"
	"falcon/internal/storage"
)

const Kind = "csv"

func init() {
	storage.Register(Kind, New)
}

// Writer is a storage.Writer over a local file.
type Writer struct {
	out io.WriteCloser
	cw  *csv.Writer
}

// New creates (or truncates) cfg.Path.
func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if cfg.Path == "" {
		return nil, errors.New("csvfile: missing output path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	out, err := codec.NewWriter(codec.Detect(cfg.Path), f)
	if err != nil {
		return nil, err
	}
	return NewWriter(out), nil
}

// NewWriter writes CSV to w. Close closes w.
func NewWriter(w io.WriteCloser) *Writer {
	return &Writer{out: w, cw: csv.NewWriter(w)}
}

func (w *Writer) WriteHeader(_ context.Context, header []string) error {
	return w.cw.Write(header)
}

func (w *Writer) WriteRow(_ context.Context, row []string) error {
	return w.cw.Write(row)
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close(_ context.Context) error {
	w.cw.Flush()
	return multierr.Append(w.cw.Error(), w.out.Close())
}
