package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding. Path is a dotted config path such as
// "selected[2].transform".
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks cfg for problems that can be detected without looking at
// the input. It never fails fast; every finding is returned.
//
// Conflicts the runner also enforces (replacement + transform on one column)
// are reported here so `falcon validate` can surface them up front.
func Validate(cfg Config) []Issue {
	var out []Issue
	add := func(sev Severity, path, format string, a ...any) {
		out = append(out, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if cfg.LineStart != nil && *cfg.LineStart < 1 {
		add(SeverityWarning, "line_start", "line numbers are 1-based; %d selects from the first row", *cfg.LineStart)
	}
	if cfg.LineEnd != nil && *cfg.LineEnd < 1 {
		add(SeverityWarning, "line_end", "line_end=%d excludes every row", *cfg.LineEnd)
	}
	if cfg.LineStart != nil && cfg.LineEnd != nil && *cfg.LineEnd < *cfg.LineStart {
		add(SeverityWarning, "line_end", "line_end=%d is before line_start=%d; no rows will be written", *cfg.LineEnd, *cfg.LineStart)
	}
	if cfg.FractionDigits != nil && *cfg.FractionDigits < 0 {
		add(SeverityError, "fraction_digits", "must be >= 0, got %d", *cfg.FractionDigits)
	}
	validateReplacements(cfg.Replacement, "replacement", add)

	seen := make(map[string]int, len(cfg.Selected))
	for i, s := range cfg.Selected {
		p := fmt.Sprintf("selected[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			add(SeverityError, p+".name", "column name is required")
		}
		if s.Replacement != nil && s.Transform != nil {
			add(SeverityError, p, "replacement and transform can not be set at the same time for column: %s", s.Name)
		}
		if s.Transform != nil && strings.TrimSpace(*s.Transform) == "" {
			add(SeverityError, p+".transform", "transform expression is empty")
		}
		if s.FractionDigits != nil && *s.FractionDigits < 0 {
			add(SeverityError, p+".fraction_digits", "must be >= 0, got %d", *s.FractionDigits)
		}
		validateReplacements(s.Replacement, p+".replacement", add)

		name := s.OutputName()
		if j, dup := seen[name]; dup {
			add(SeverityWarning, p, "output column %q is also produced by selected[%d]", name, j)
		} else {
			seen[name] = i
		}
	}

	if cfg.Delimiter != "" && utf8.RuneCountInString(cfg.Delimiter) != 1 {
		add(SeverityError, "delimiter", "must be a single character, got %q", cfg.Delimiter)
	}
	if cfg.Delimiter == "\"" || cfg.Delimiter == "\n" || cfg.Delimiter == "\r" {
		add(SeverityError, "delimiter", "%q can not be used as a delimiter", cfg.Delimiter)
	}

	switch {
	case cfg.Output.Kind == "" || cfg.Output.Kind == OutputCSV:
	case cfg.Output.IsDatabase():
		if strings.TrimSpace(cfg.Output.DSN) == "" {
			add(SeverityError, "output.dsn", "dsn is required for output kind %q", cfg.Output.Kind)
		}
		if strings.TrimSpace(cfg.Output.Table) == "" {
			add(SeverityError, "output.table", "table is required for output kind %q", cfg.Output.Kind)
		}
		if cfg.Output.BatchSize < 0 {
			add(SeverityError, "output.batch_size", "must be >= 0, got %d", cfg.Output.BatchSize)
		}
	default:
		add(SeverityError, "output.kind", "unsupported output kind %q", cfg.Output.Kind)
	}

	switch cfg.Metrics.Backend {
	case "", "none", "datadog", "pushgateway":
	default:
		add(SeverityWarning, "metrics.backend", "unknown backend %q; metrics will be disabled", cfg.Metrics.Backend)
	}

	return out
}

func validateReplacements(rs []Replacement, path string, add func(Severity, string, string, ...any)) {
	seen := make(map[string]struct{}, len(rs))
	for i, r := range rs {
		p := fmt.Sprintf("%s[%d]", path, i)
		if r.Old == "" {
			add(SeverityWarning, p+".old", "empty cells are never replaced")
		}
		if _, dup := seen[r.Old]; dup {
			add(SeverityWarning, p+".old", "duplicate %q; the last entry wins", r.Old)
		}
		seen[r.Old] = struct{}{}
	}
}
