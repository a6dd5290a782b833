// Package codec picks a stream compression from a file name suffix.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/multierr"
)

// Codec identifies a compression format.
type Codec int

const (
	None Codec = iota
	Gzip
	Zstd
	LZ4
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// Detect returns the codec matching the last suffix of path.
func Detect(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// Strip removes a compression suffix from path, if any.
func Strip(path string) string {
	if Detect(path) == None {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// IsCSV reports whether path names a CSV file, optionally compressed.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(Strip(path)), ".csv")
}

// NewReader wraps r with a decompressor. Closing the result closes r too.
func NewReader(c Codec, r io.ReadCloser) (io.ReadCloser, error) {
	switch c {
	case None:
		return r, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("gzip: %w", err), r.Close())
		}
		return &readCloser{Reader: zr, close: func() error {
			return multierr.Append(zr.Close(), r.Close())
		}}, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("zstd: %w", err), r.Close())
		}
		return &readCloser{Reader: zr, close: func() error {
			zr.Close()
			return r.Close()
		}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(r), close: r.Close}, nil
	default:
		return nil, fmt.Errorf("codec: unsupported %s", c)
	}
}

// NewWriter wraps w with a compressor. Closing the result flushes the
// compressor and then closes w.
func NewWriter(c Codec, w io.WriteCloser) (io.WriteCloser, error) {
	switch c {
	case None:
		return w, nil
	case Gzip:
		zw := gzip.NewWriter(w)
		return &writeCloser{Writer: zw, inner: zw, w: w}, nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("zstd: %w", err), w.Close())
		}
		return &writeCloser{Writer: zw, inner: zw, w: w}, nil
	case LZ4:
		zw := lz4.NewWriter(w)
		return &writeCloser{Writer: zw, inner: zw, w: w}, nil
	default:
		return nil, errors.New("codec: unsupported " + c.String())
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

type writeCloser struct {
	io.Writer
	inner io.Closer
	w     io.Closer
}

func (w *writeCloser) Close() error {
	return multierr.Append(w.inner.Close(), w.w.Close())
}
