package postgres

import (
	"fmt"
	"strings"
	"time"

	"salesmart/internal/schema"
)

// columnType maps a destination column to its Postgres type. Everything is
// text except the two typed columns of the output schema.
func columnType(col string) string {
	switch col {
	case "date":
		return "date"
	case "amount":
		return "double precision"
	default:
		return "text"
	}
}

// buildCreateSQL constructs the DDL for the partitioned parent table.
// Pure and deterministic so partitioning and idempotence can be unit tested
// without a database.
//
// The table name may be schema-qualified; a CREATE SCHEMA statement is
// returned for that case and empty otherwise.
func buildCreateSQL(table string) (schemaSQL, tableSQL, indexSQL string) {
	if sch, _, ok := splitQualified(table); ok {
		schemaSQL = "CREATE SCHEMA IF NOT EXISTS " + sch + ";"
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range schema.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
		b.WriteString(" ")
		b.WriteString(columnType(c))
		b.WriteString(" NOT NULL")
	}
	b.WriteString(") PARTITION BY RANGE (")
	b.WriteString(pgIdent("date"))
	b.WriteString(");")
	tableSQL = b.String()

	// Clustering analog of the legacy store's ORDER BY (date).
	_, bare, _ := splitQualified(table)
	indexSQL = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
		pgIdent(bare+"_date_idx"), table, pgIdent("date"))
	return schemaSQL, tableSQL, indexSQL
}

// buildPartitionSQL constructs the DDL for one calendar-month child
// partition. month must be a first-of-month value.
func buildPartitionSQL(table string, month time.Time) string {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	child := table + "_" + from.Format("200601")
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s');",
		child, table, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// buildInsertSQL constructs the multi-row INSERT for n records. Placeholder
// numbering is row-major over schema.Columns; insertArgs flattens records
// in the same order.
func buildInsertSQL(table string, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range schema.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	p := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range schema.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String()
}

func insertArgs(recs []schema.OutputRecord) []any {
	args := make([]any, 0, len(recs)*len(schema.Columns))
	for _, r := range recs {
		args = append(args,
			r.Date,
			r.Number,
			r.RootDepartment,
			r.Department,
			r.Section,
			r.Sector,
			r.EmployeeName,
			r.RootFolder,
			r.Folder1,
			r.Folder2,
			r.Folder3,
			r.ItemName,
			r.Amount,
			r.Realization,
		)
	}
	return args
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// splitQualified splits "schema.table" into its parts; ok reports whether
// the name was qualified.
func splitQualified(table string) (sch, bare string, ok bool) {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:], true
	}
	return "", table, false
}
