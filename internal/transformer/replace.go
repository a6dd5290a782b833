package transformer

import "falcon/internal/config"

// ReplacementSet maps a verbatim cell value to its substitute.
//
// A set holds at most one entry per old value. Building a set from several
// lists applies them in order, so a later entry for the same old value
// overwrites an earlier one.
type ReplacementSet struct {
	byOld map[string]string
}

// NewReplacementSet deduplicates the given lists, last write wins.
func NewReplacementSet(lists ...[]config.Replacement) ReplacementSet {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	s := ReplacementSet{byOld: make(map[string]string, n)}
	for _, l := range lists {
		for _, r := range l {
			s.byOld[r.Old] = r.New
		}
	}
	return s
}

// Lookup returns the substitute for an exact match of v.
func (s ReplacementSet) Lookup(v string) (string, bool) {
	nv, ok := s.byOld[v]
	return nv, ok
}
