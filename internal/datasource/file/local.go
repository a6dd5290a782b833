// Package file opens local input files, undoing compression and decoding the
// declared charset so the parser always sees UTF-8.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"falcon/internal/codec"
)

// ErrUnknownEncoding is returned for a charset name the IANA index does not
// know or cannot decode.
var ErrUnknownEncoding = errors.New("unknown input encoding")

// Local is a file on the local filesystem.
type Local struct {
	Path     string
	Encoding string // IANA charset name; empty or utf-8 means no decoding
}

// NewLocal returns a source for path.
func NewLocal(path string) *Local { return &Local{Path: path} }

// WithEncoding sets the input charset.
func (l *Local) WithEncoding(name string) *Local {
	l.Encoding = name
	return l
}

// Open opens the file. The caller must close the returned reader.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, err := LookupEncoding(l.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	rc, err := codec.NewReader(codec.Detect(l.Path), f)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", l.Path, err)
	}
	if enc == nil {
		return rc, nil
	}
	return &decodedReader{
		Reader: transform.NewReader(rc, enc.NewDecoder()),
		Closer: rc,
	}, nil
}

// LookupEncoding resolves an IANA charset name. A nil encoding means the input
// is already UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

type decodedReader struct {
	io.Reader
	io.Closer
}
