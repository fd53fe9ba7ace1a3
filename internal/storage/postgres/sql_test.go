package postgres

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"salesmart/internal/schema"
)

func sampleRecords(n int) []schema.OutputRecord {
	recs := make([]schema.OutputRecord, n)
	for i := range recs {
		recs[i] = schema.OutputRecord{
			Date:        time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			Number:      fmt.Sprintf("N-%d", i),
			Amount:      float64(i) * 10,
			Realization: "not changed",
		}
	}
	return recs
}

func TestBuildCreateSQL_Unqualified(t *testing.T) {
	t.Parallel()

	schemaSQL, tableSQL, indexSQL := buildCreateSQL("vitrina_sales")

	if schemaSQL != "" {
		t.Errorf("unexpected schema DDL for bare table: %q", schemaSQL)
	}
	if !strings.HasPrefix(tableSQL, "CREATE TABLE IF NOT EXISTS vitrina_sales (") {
		t.Errorf("table DDL prefix wrong: %q", tableSQL)
	}
	if !strings.HasSuffix(tableSQL, `) PARTITION BY RANGE ("date");`) {
		t.Errorf("table DDL must range-partition on date: %q", tableSQL)
	}
	for _, frag := range []string{
		`"date" date NOT NULL`,
		`"amount" double precision NOT NULL`,
		`"realization" text NOT NULL`,
		`"folder_3" text NOT NULL`,
	} {
		if !strings.Contains(tableSQL, frag) {
			t.Errorf("table DDL missing %q:\n%s", frag, tableSQL)
		}
	}
	want := `CREATE INDEX IF NOT EXISTS "vitrina_sales_date_idx" ON vitrina_sales ("date");`
	if indexSQL != want {
		t.Errorf("index DDL = %q, want %q", indexSQL, want)
	}
}

func TestBuildCreateSQL_SchemaQualified(t *testing.T) {
	t.Parallel()

	schemaSQL, tableSQL, indexSQL := buildCreateSQL("marts.vitrina_sales")

	if schemaSQL != "CREATE SCHEMA IF NOT EXISTS marts;" {
		t.Errorf("schema DDL = %q", schemaSQL)
	}
	if !strings.Contains(tableSQL, "marts.vitrina_sales") {
		t.Errorf("table DDL must keep qualification: %q", tableSQL)
	}
	// The index name is built from the bare table name only.
	if !strings.Contains(indexSQL, `"vitrina_sales_date_idx"`) {
		t.Errorf("index DDL = %q", indexSQL)
	}
	if !strings.Contains(indexSQL, "ON marts.vitrina_sales") {
		t.Errorf("index DDL must target the qualified table: %q", indexSQL)
	}
}

func TestBuildCreateSQL_Idempotent(t *testing.T) {
	t.Parallel()

	_, first, _ := buildCreateSQL("t")
	_, second, _ := buildCreateSQL("t")
	if first != second {
		t.Fatalf("builder not deterministic:\n%s\n%s", first, second)
	}
	if !strings.Contains(first, "IF NOT EXISTS") {
		t.Fatalf("DDL must be re-runnable: %q", first)
	}
}

func TestBuildPartitionSQL(t *testing.T) {
	t.Parallel()

	got := buildPartitionSQL("vitrina_sales", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	want := "CREATE TABLE IF NOT EXISTS vitrina_sales_202503 PARTITION OF vitrina_sales" +
		" FOR VALUES FROM ('2025-03-01') TO ('2025-04-01');"
	if got != want {
		t.Errorf("partition DDL:\n got %q\nwant %q", got, want)
	}
}

func TestBuildPartitionSQL_YearRollover(t *testing.T) {
	t.Parallel()

	got := buildPartitionSQL("t", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(got, "FROM ('2025-12-01') TO ('2026-01-01')") {
		t.Errorf("December partition must end at next January: %q", got)
	}
}

func TestBuildInsertSQL_PlaceholderNumbering(t *testing.T) {
	t.Parallel()

	sql := buildInsertSQL("t", 2)
	if !strings.Contains(sql, "($1, ") {
		t.Errorf("first row must start at $1: %q", sql)
	}
	// 14 columns per row: the second starts at $15, the last is $28.
	if !strings.Contains(sql, "($15, ") {
		t.Errorf("second row must start at $15: %q", sql)
	}
	if !strings.Contains(sql, "$28)") {
		t.Errorf("last placeholder must be $28: %q", sql)
	}
	if strings.Contains(sql, "$29") {
		t.Errorf("too many placeholders: %q", sql)
	}
}

func TestInsertArgsAlignWithPlaceholders(t *testing.T) {
	t.Parallel()

	args := insertArgs(sampleRecords(2))
	sql := buildInsertSQL("t", 2)

	if want := strings.Count(sql, "$"); len(args) != want {
		t.Fatalf("%d args for %d placeholders", len(args), want)
	}
	if args[1] != "N-0" || args[15] != "N-1" {
		t.Errorf("row-major flattening wrong: %v, %v", args[1], args[15])
	}
}

func TestPgIdent_EscapesQuotes(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("pgIdent = %q", got)
	}
}
