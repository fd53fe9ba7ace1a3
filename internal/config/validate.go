package config

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding, addressed by JSON path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// ValidatePipeline checks a default-filled pipeline config. It returns every
// finding rather than stopping at the first, so operators can fix a config
// in one pass.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	switch p.Source.Kind {
	case "mssql", "sqlite":
	case "":
		errf("source.kind", "must be set")
	default:
		errf("source.kind", "unsupported kind %q", p.Source.Kind)
	}
	if p.Source.DSN == "" {
		errf("source.dsn", "must be set")
	}

	switch p.Storage.Kind {
	case "postgres", "sqlite":
	case "":
		errf("storage.kind", "must be set")
	default:
		errf("storage.kind", "unsupported kind %q", p.Storage.Kind)
	}
	if p.Storage.DSN == "" {
		errf("storage.dsn", "must be set")
	}
	if p.Storage.Table == "" {
		errf("storage.table", "must be set")
	}

	start, end, err := p.Window.Range()
	if err != nil {
		errf("window", "%v", err)
	} else if !start.Before(end) {
		errf("window", "start %s must precede end %s", p.Window.Start, p.Window.End)
	}

	if p.Attribution.RootDepartmentID <= 0 {
		errf("attribution.root_department_id", "must be a positive id")
	}

	if len(p.Departments.SeedSetAParents) == 0 {
		errf("departments.seed_set_a_parents", "must not be empty")
	}
	if len(p.Departments.SeedSetBRoots) == 0 {
		errf("departments.seed_set_b_roots", "must not be empty")
	}
	if overlap := intersect(p.Departments.SeedSetAParents, p.Departments.SeedSetBRoots); len(overlap) > 0 {
		// Not fatal: the resolver keeps both closure rows by contract, but an
		// overlapping seed definition is almost always a config mistake.
		warnf("departments", "ids %v appear in both seed sets; hierarchy lookups will fan out", overlap)
	}

	if p.Staging.Dir == "" {
		errf("staging.dir", "must be set")
	}

	return issues
}

func intersect(a, b []int64) []int64 {
	in := make(map[int64]struct{}, len(a))
	for _, v := range a {
		in[v] = struct{}{}
	}
	var out []int64
	for _, v := range b {
		if _, ok := in[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
