package transformer

import (
	"strconv"
	"unicode/utf8"
)

// Apply transforms one raw cell according to the column behavior.
//
// Empty cells pass through untouched unless the column is a transform, where
// an empty or non-numeric cell is an ErrNumericParse failure.
func (c Column) Apply(cell string) (string, error) {
	if !utf8.ValidString(cell) {
		return "", ErrEncoding
	}

	switch c.Manipulate.Kind {
	case ManipulateTransform:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return "", ErrNumericParse
		}
		out, err := c.Manipulate.Transform.Eval(v)
		if err != nil {
			return "", err
		}
		return FormatFloat(out, c.Digits), nil

	case ManipulateReplace:
		if cell == "" {
			return cell, nil
		}
		if nv, ok := c.Manipulate.Replacements.Lookup(cell); ok {
			cell = nv
		}

	default:
		if cell == "" {
			return cell, nil
		}
	}

	if c.HasDigits {
		return FormatDigits(cell, c.Digits), nil
	}
	return cell, nil
}

// ApplyRow transforms a whole input record into dst, which must have
// len(cols) elements. line is used for error context only.
func ApplyRow(cols []Column, rec []string, dst []string, line int) error {
	for i, c := range cols {
		if c.Index >= len(rec) {
			return &CellError{Line: line, Column: c.Name, Err: errShortRow(len(rec), c.Index)}
		}
		v, err := c.Apply(rec[c.Index])
		if err != nil {
			return &CellError{Line: line, Column: c.Name, Err: err}
		}
		dst[i] = v
	}
	return nil
}
