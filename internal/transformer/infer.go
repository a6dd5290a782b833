package transformer

import (
	"strconv"
	"unicode/utf8"
)

// DefaultTransformDigits is used for transform columns when neither the
// column nor the global config sets fraction digits.
const DefaultTransformDigits = 2

// Column is a fully resolved output column. It is immutable once Infer has
// returned and safe to share across goroutines.
type Column struct {
	Index      int
	Name       string
	Digits     int  // valid only when HasDigits
	HasDigits  bool // render numeric cells with exactly Digits fraction digits
	Manipulate Manipulate
}

// Infer settles fraction digits and downgrades non-numeric transform columns
// by inspecting the first data row. It is called exactly once per run.
//
// For a transform column digits are column ?? global ?? 2. For any other
// column digits apply only when configured and the first value is a float
// that is not an integer. A transform column whose first value is not a float
// becomes passthrough for the whole run; the downgrade happens before digits
// are settled, so such a column never formats its cells.
func Infer(declared []DeclaredColumn, first []string, globalDigits *int) ([]Column, error) {
	cols := make([]Column, len(declared))
	for i, d := range declared {
		if d.Index >= len(first) {
			return nil, &CellError{Line: 1, Column: d.Name, Err: errShortRow(len(first), d.Index)}
		}
		v := first[d.Index]
		if d.Manipulate.Active() && !d.Inherited && v == "" {
			return nil, &CellError{Line: 1, Column: d.Name, Err: ErrEmptyRequiredCell}
		}
		if !utf8.ValidString(v) {
			return nil, &CellError{Line: 1, Column: d.Name, Err: ErrEncoding}
		}

		if d.Manipulate.Kind == ManipulateTransform && !isFloat(v) {
			d.Manipulate = Manipulate{Kind: ManipulateNone}
		}
		c := Column{Index: d.Index, Name: d.Name, Manipulate: d.Manipulate}
		c.Digits, c.HasDigits = inferDigits(d, v, globalDigits)
		cols[i] = c
	}
	return cols, nil
}

func inferDigits(d DeclaredColumn, v string, global *int) (int, bool) {
	if d.Manipulate.Kind == ManipulateTransform {
		switch {
		case d.Digits != nil:
			return *d.Digits, true
		case global != nil:
			return *global, true
		default:
			return DefaultTransformDigits, true
		}
	}

	if d.Digits == nil && global == nil {
		return 0, false
	}
	if isInteger(v) || !isFloat(v) {
		return 0, false
	}
	if d.Digits != nil {
		return *d.Digits, true
	}
	return *global, true
}

func isInteger(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}
