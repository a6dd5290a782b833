package transformer

import (
	"errors"
	"fmt"

	"falcon/internal/expression"
)

// Configuration errors. Resolve returns them before any data row is read.
var (
	ErrColumnNotFound          = errors.New("column not found")
	ErrConflictingManipulation = errors.New("replacement and transform can not be set at the same time")
	ErrTransformParse          = expression.ErrParse
	ErrTransformBind           = expression.ErrBind
)

// Data errors. They abort the stream at the offending row.
var (
	ErrEmptyRequiredCell = errors.New("first line of column must not be empty")
	ErrNumericParse      = errors.New("cell is not a number")
	ErrEncoding          = errors.New("cell is not valid UTF-8")
	ErrTransformEval     = expression.ErrEval
	ErrShortRow          = errors.New("row has fewer fields than the header")
)

func errShortRow(fields, index int) error {
	return fmt.Errorf("%w: %d fields, column index %d", ErrShortRow, fields, index)
}

// CellError attaches the data row and output column to a cell-level failure.
type CellError struct {
	Line   int // 1-based data row, header excluded
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }
