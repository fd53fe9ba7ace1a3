package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validPipeline() Pipeline {
	p := Pipeline{
		Source:  Source{Kind: "sqlite", DSN: "ops.db"},
		Storage: Storage{Kind: "sqlite", DSN: "mart.db"},
	}
	p.ApplyDefaults()
	return p
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MinimalConfigGetsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{
		"source":  {"kind": "sqlite", "dsn": "ops.db"},
		"storage": {"kind": "sqlite", "dsn": "mart.db"}
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Job != "salesmart" {
		t.Errorf("job %q, want salesmart", p.Job)
	}
	if p.Storage.Table != "rop_sales" {
		t.Errorf("table %q, want rop_sales", p.Storage.Table)
	}
	if p.Window.Start != "2025-01-01" || p.Window.End != "2025-08-01" {
		t.Errorf("window %s..%s, want legacy defaults", p.Window.Start, p.Window.End)
	}
	if p.Attribution.RootDepartmentID != 59041 {
		t.Errorf("attribution root %d, want 59041", p.Attribution.RootDepartmentID)
	}
	if len(p.Departments.SeedSetAParents) != 7 || len(p.Departments.SeedSetBRoots) != 9 {
		t.Errorf("seed sets %d/%d, want 7/9", len(p.Departments.SeedSetAParents), len(p.Departments.SeedSetBRoots))
	}
	if p.Labels.Unknown != "Не известен" || p.Labels.RootOffice != "Офис" {
		t.Errorf("label defaults wrong: %+v", p.Labels)
	}
	if p.Staging.Prefix != "vitrina_sales" {
		t.Errorf("staging prefix %q", p.Staging.Prefix)
	}
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{
		"source":  {"kind": "mssql", "dsn": "sqlserver://x"},
		"storage": {"kind": "postgres", "dsn": "postgres://y", "table": "marts.sales"},
		"window":  {"start": "2025-06-01", "end": "2025-07-01"},
		"attribution": {"root_department_id": 100},
		"departments": {"seed_set_a_parents": [1], "seed_set_b_roots": [2], "synthetic_top_ids": [3]}
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Storage.Table != "marts.sales" || p.Attribution.RootDepartmentID != 100 {
		t.Errorf("explicit values overwritten: %+v", p)
	}
	if len(p.Departments.SyntheticTopIDs) != 1 || p.Departments.SyntheticTopIDs[0] != 3 {
		t.Errorf("synthetic ids %v, want [3]", p.Departments.SyntheticTopIDs)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"sorce": {"kind": "sqlite"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error for misspelled section")
	}
}

func TestWindowRange(t *testing.T) {
	t.Parallel()

	w := Window{Start: "2025-01-01", End: "2025-08-01"}
	start, end, err := w.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if !start.Before(end) {
		t.Errorf("start %v not before end %v", start, end)
	}

	if _, _, err := (Window{Start: "01.01.2025", End: "2025-08-01"}).Range(); err == nil {
		t.Error("expected parse error for non-ISO start")
	}
}

func TestValidatePipeline_CleanConfig(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestValidatePipeline_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Source.Kind = "oracle"
	p.Storage.DSN = ""
	p.Window = Window{Start: "2025-08-01", End: "2025-01-01"}

	issues := ValidatePipeline(p)
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3: %+v", len(issues), issues)
	}
	paths := map[string]bool{}
	for _, is := range issues {
		if is.Severity != SeverityError {
			t.Errorf("issue %+v should be an error", is)
		}
		paths[is.Path] = true
	}
	for _, want := range []string{"source.kind", "storage.dsn", "window"} {
		if !paths[want] {
			t.Errorf("missing issue for %s: %+v", want, issues)
		}
	}
}

func TestValidatePipeline_SeedOverlapWarns(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Departments.SeedSetAParents = []int64{1, 2}
	p.Departments.SeedSetBRoots = []int64{2, 3}

	issues := ValidatePipeline(p)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Severity != SeverityWarning || issues[0].Path != "departments" {
		t.Errorf("issue = %+v, want departments warning", issues[0])
	}
}
