// Package transformer resolves column selections into per-column cell
// behaviors and applies them to streamed rows.
//
// The flow for one run is:
//
//	Resolve(headers, cfg)      -> []DeclaredColumn   (config only)
//	Infer(declared, firstRow)  -> []Column           (once, on data row 1)
//	Column.Apply / ApplyRow    -> output cells       (every emitted row)
//
// Columns returned by Infer are never mutated afterwards.
package transformer

// Row is a positional input record.
//
// Ownership contract:
//   - The parser owns the Row and may reuse it (and V) for the next record.
//   - Consumers must copy anything they keep past the next read.
type Row struct {
	V    []string
	Line int // 1-based data row number; the header is not counted
}

// Reset clears the row for reuse while keeping the backing array.
func (r *Row) Reset() {
	r.V = r.V[:0]
	r.Line = 0
}
