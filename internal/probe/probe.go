// Package probe samples a CSV input and renders a starter falcon
// configuration: one selected entry per header, with numeric hints for
// float columns.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"falcon/internal/config"
	"falcon/internal/datasource/file"
)

const (
	defaultRows     = 1000
	defaultMaxBytes = 1 << 20

	// floatDigits is the fraction_digits suggested for float columns.
	floatDigits = 2
)

// ErrNoHeader is returned when the sample contains no header row.
var ErrNoHeader = errors.New("probe: input has no header row")

// Options controls sampling and rendering.
type Options struct {
	Path      string
	Encoding  string
	Delimiter rune

	// Rows caps the number of sampled data rows (default 1000).
	Rows int
	// MaxBytes caps the number of bytes read from the input (default 1 MiB).
	MaxBytes int64

	// Format is "toml" (default) or "yaml".
	Format string
}

// Result is the outcome of a probe.
type Result struct {
	Headers    []string
	Types      []string
	SampleRows int
	Config     []byte
}

// starter is the subset of config.Config a probe emits.
type starter struct {
	Delimiter string            `toml:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Encoding  string            `toml:"encoding,omitempty" yaml:"encoding,omitempty"`
	Selected  []config.Selected `toml:"selected" yaml:"selected"`
}

// Probe samples opt.Path and renders a starter configuration.
func Probe(ctx context.Context, opt Options) (Result, error) {
	if opt.Path == "" {
		return Result{}, errors.New("probe: missing input path")
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = defaultMaxBytes
	}

	rc, err := file.NewLocal(opt.Path).WithEncoding(opt.Encoding).Open(ctx)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	sample, err := readSample(rc, opt.MaxBytes)
	if err != nil {
		return Result{}, fmt.Errorf("probe: read %s: %w", opt.Path, err)
	}
	return FromSample(sample, opt)
}

// FromSample builds a Result from raw CSV bytes already decoded to UTF-8.
func FromSample(sample []byte, opt Options) (Result, error) {
	comma := opt.Delimiter
	if comma == 0 {
		comma = ','
	}
	rows := opt.Rows
	if rows <= 0 {
		rows = defaultRows
	}

	headers, records, err := readCSVSample(sample, comma)
	if err != nil {
		return Result{}, fmt.Errorf("probe: parse sample: %w", err)
	}
	if len(headers) == 0 {
		return Result{}, ErrNoHeader
	}
	if len(records) > rows {
		records = records[:rows]
	}

	types := inferTypes(headers, records)
	st := starter{Encoding: opt.Encoding, Selected: selectedFor(headers, types)}
	if comma != ',' {
		st.Delimiter = string(comma)
	}

	body, err := render(st, opt.Format)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Headers:    headers,
		Types:      types,
		SampleRows: len(records),
		Config:     body,
	}, nil
}

// readSample reads at most max bytes. A truncated sample is cut at its last
// newline so the final record is never partial.
func readSample(r io.Reader, max int64) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) <= max {
		return buf, nil
	}
	buf = buf[:max]
	if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i+1]
	}
	return buf, nil
}

func selectedFor(headers, types []string) []config.Selected {
	out := make([]config.Selected, 0, len(headers))
	for i, h := range headers {
		s := config.Selected{Name: h}
		if n := normalizeFieldName(h); n != "" && n != h {
			n = truncateFieldName(n)
			s.Rename = &n
		}
		if types[i] == "float" {
			d := floatDigits
			s.FractionDigits = &d
		}
		out = append(out, s)
	}
	return out
}

func render(st starter, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "toml":
		b, err := toml.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("probe: render toml: %w", err)
		}
		return b, nil
	case "yaml", "yml":
		b, err := yaml.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("probe: render yaml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("probe: unsupported format %q (want toml or yaml)", format)
	}
}

// Summary renders a short human-readable table of the inferred columns.
func (r Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sample_rows=%d\n", r.SampleRows)
	b.WriteString("header,type\n")
	for i, h := range r.Headers {
		fmt.Fprintf(&b, "%s,%s\n", h, r.Types[i])
	}
	return b.String()
}
