// Package csv reads delimited text into positional transformer rows.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"falcon/internal/transformer"
)

// ErrNoHeader is returned when the input has no header record at all.
var ErrNoHeader = errors.New("csv: input has no header row")

const bom = "\uFEFF"

// Options tunes the underlying encoding/csv reader.
type Options struct {
	Comma      rune // defaults to ','
	LazyQuotes bool
}

// Reader pulls data rows one at a time after the header.
//
// Records may have any number of fields; callers decide what a short row
// means. The *transformer.Row returned by Next is reused by the following
// call.
type Reader struct {
	cr     *csv.Reader
	header []string
	row    transformer.Row
	line   int
}

// NewReader reads the header record from r. A UTF-8 byte order mark in front
// of the first header field is dropped.
func NewReader(r io.Reader, opt Options) (*Reader, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(hdr))
	copy(header, hdr)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	return &Reader{cr: cr, header: header}, nil
}

// Header returns the header fields. The slice is owned by the Reader.
func (r *Reader) Header() []string { return r.header }

// Next returns the next data row, or io.EOF once the input is exhausted.
func (r *Reader) Next() (*transformer.Row, error) {
	rec, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read row %d: %w", r.line+1, err)
	}
	r.line++
	r.row.Reset()
	r.row.V = append(r.row.V, rec...)
	r.row.Line = r.line
	return &r.row, nil
}
