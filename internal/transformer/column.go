package transformer

import (
	"fmt"

	"go.uber.org/zap"

	"falcon/internal/config"
	"falcon/internal/expression"
)

// ManipulateKind enumerates the per-column cell behaviors.
type ManipulateKind uint8

const (
	ManipulateNone ManipulateKind = iota
	ManipulateReplace
	ManipulateTransform
)

func (k ManipulateKind) String() string {
	switch k {
	case ManipulateNone:
		return "none"
	case ManipulateReplace:
		return "replace"
	case ManipulateTransform:
		return "transform"
	default:
		return fmt.Sprintf("ManipulateKind(%d)", uint8(k))
	}
}

// Manipulate is the behavior applied to every cell of a column. Exactly one
// kind is active; only the payload matching Kind is meaningful.
type Manipulate struct {
	Kind         ManipulateKind
	Replacements ReplacementSet   // ManipulateReplace
	Transform    *expression.Func // ManipulateTransform
}

// Active reports whether the column does anything besides passthrough.
func (m Manipulate) Active() bool { return m.Kind != ManipulateNone }

// DeclaredColumn is a column as resolved from configuration, before the first
// data row has been seen.
type DeclaredColumn struct {
	Index      int    // 0-based position in the input header
	Name       string // output name
	Digits     *int   // column-level fraction digits
	Manipulate Manipulate

	// Inherited is set when the column declared no manipulation of its own
	// and only carries the global replacement list. Such a column accepts an
	// empty first-row cell like a passthrough column.
	Inherited bool
}

// Resolve maps the header row and configuration to declared output columns.
//
// With no selected columns every header is passed through in order, carrying
// the global fraction digits. Otherwise columns follow the declared order of
// cfg.Selected. Resolve does not read data rows.
func Resolve(headers []string, cfg config.Config, log *zap.Logger) ([]DeclaredColumn, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if len(cfg.Selected) == 0 {
		cols := make([]DeclaredColumn, len(headers))
		for i, h := range headers {
			cols[i] = DeclaredColumn{Index: i, Name: h, Digits: cfg.FractionDigits}
		}
		log.Debug("resolve: passthrough", zap.Int("columns", len(cols)))
		return cols, nil
	}

	pos := make(map[string]int, len(headers))
	for i := len(headers) - 1; i >= 0; i-- {
		pos[headers[i]] = i // first occurrence wins
	}

	cols := make([]DeclaredColumn, 0, len(cfg.Selected))
	for _, sel := range cfg.Selected {
		if sel.Replacement != nil && sel.Transform != nil {
			return nil, fmt.Errorf("%w for column: %s", ErrConflictingManipulation, sel.Name)
		}
		idx, ok := pos[sel.Name]
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrColumnNotFound, sel.Name)
		}

		m, err := declareManipulate(sel, cfg.Replacement)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", sel.Name, err)
		}

		col := DeclaredColumn{
			Index:      idx,
			Name:       sel.OutputName(),
			Digits:     sel.FractionDigits,
			Manipulate: m,
			Inherited:  sel.Replacement == nil && sel.Transform == nil,
		}
		log.Debug("resolve: column",
			zap.String("source", sel.Name),
			zap.String("name", col.Name),
			zap.Int("index", idx),
			zap.Stringer("manipulate", m.Kind),
		)
		cols = append(cols, col)
	}
	return cols, nil
}

func declareManipulate(sel config.Selected, global []config.Replacement) (Manipulate, error) {
	if sel.Transform != nil {
		f, err := expression.Compile(*sel.Transform)
		if err != nil {
			return Manipulate{}, err
		}
		return Manipulate{Kind: ManipulateTransform, Transform: f}, nil
	}
	if sel.Replacement == nil && len(global) == 0 {
		return Manipulate{Kind: ManipulateNone}, nil
	}
	return Manipulate{
		Kind:         ManipulateReplace,
		Replacements: NewReplacementSet(global, sel.Replacement),
	}, nil
}
