// Package sqlite implements storage.Repository for SQLite, used for local
// runs and tests.
//
// SQLite has no native partitioning; the monthly-partition contract
// degrades to a plain table with a date index, which gives the same query
// shape (month pruning via the index) without the storage-level split.
// Dates are stored as YYYY-MM-DD text for reliable round trips under
// SQLite's type affinity rules.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salesmart/internal/schema"
	"salesmart/internal/storage"
)

// insertChunkRows caps rows per INSERT so the statement stays well under
// SQLite's bound-variable limit.
const insertChunkRows = 500

type Repo struct {
	db    *sql.DB
	table string
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db, table: cfg.Table}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) EnsureTable(ctx context.Context) error {
	tableSQL, indexSQL := buildCreateSQL(r.table)
	if _, err := r.db.ExecContext(ctx, tableSQL); err != nil {
		return &storage.LoadError{Op: "create table", Err: err}
	}
	if _, err := r.db.ExecContext(ctx, indexSQL); err != nil {
		return &storage.LoadError{Op: "create index", Err: err}
	}
	return nil
}

// EnsureMonths is a no-op: no partitioning to provision here.
func (r *Repo) EnsureMonths(ctx context.Context, months []time.Time) error {
	return nil
}

// AppendRows inserts the batch in chunks inside one transaction. The
// transaction only bounds this call; across calls the append-only,
// no-dedup contract of storage.Repository stands.
func (r *Repo) AppendRows(ctx context.Context, recs []schema.OutputRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &storage.LoadError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	var total int64
	for off := 0; off < len(recs); off += insertChunkRows {
		chunk := recs[off:min(off+insertChunkRows, len(recs))]
		res, err := tx.ExecContext(ctx, buildInsertSQL(r.table, len(chunk)), insertArgs(chunk)...)
		if err != nil {
			return total, &storage.LoadError{Op: "insert", Err: err}
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return total, &storage.LoadError{Op: "commit", Err: err}
	}
	return total, nil
}

func buildCreateSQL(table string) (tableSQL, indexSQL string) {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range schema.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
		switch c {
		case "amount":
			b.WriteString(" REAL NOT NULL")
		default:
			// "date" included: TEXT affinity, stored as YYYY-MM-DD.
			b.WriteString(" TEXT NOT NULL")
		}
	}
	b.WriteString(");")

	idx := "CREATE INDEX IF NOT EXISTS " + sqlIdent(table+"_date_idx") +
		" ON " + sqlIdent(table) + " (" + sqlIdent("date") + ");"
	return b.String(), idx
}

func buildInsertSQL(table string, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range schema.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(schema.Columns)), ", ") + ")"
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	b.WriteString(";")
	return b.String()
}

func insertArgs(recs []schema.OutputRecord) []any {
	args := make([]any, 0, len(recs)*len(schema.Columns))
	for _, r := range recs {
		args = append(args,
			r.Date.Format("2006-01-02"),
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

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

var _ storage.Repository = (*Repo)(nil)
