// Package postgres implements storage.Repository for Postgres.
//
// The destination is a declaratively partitioned table: the parent is
// partitioned by month of "date" and AppendRows relies on the per-month
// child tables that EnsureMonths provisions. All DDL/DML text comes from
// pure builder functions so the SQL contract is unit-testable without a
// database.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesmart/internal/schema"
	"salesmart/internal/storage"
)

type Repo struct {
	pool  *pgxpool.Pool
	table string
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool, table: cfg.Table}, nil
}

func (r *Repo) Close() { r.pool.Close() }

// EnsureTable creates the partitioned parent table and its date index.
// Every statement is IF NOT EXISTS; running against an existing table is a
// no-op, never an error.
func (r *Repo) EnsureTable(ctx context.Context) error {
	schemaSQL, tableSQL, indexSQL := buildCreateSQL(r.table)

	if schemaSQL != "" {
		if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
			return &storage.LoadError{Op: "create schema", Err: err}
		}
	}
	if _, err := r.pool.Exec(ctx, tableSQL); err != nil {
		return &storage.LoadError{Op: "create table", Err: err}
	}
	if _, err := r.pool.Exec(ctx, indexSQL); err != nil {
		return &storage.LoadError{Op: "create index", Err: err}
	}
	return nil
}

// EnsureMonths provisions one child partition per month. Idempotent for the
// same reason EnsureTable is.
func (r *Repo) EnsureMonths(ctx context.Context, months []time.Time) error {
	for _, m := range months {
		if _, err := r.pool.Exec(ctx, buildPartitionSQL(r.table, m)); err != nil {
			return &storage.LoadError{Op: fmt.Sprintf("create partition %s", m.Format("2006-01")), Err: err}
		}
	}
	return nil
}

// AppendRows performs the batch insert. One statement, no dedup key, no
// retry safety: see the storage.Repository contract.
func (r *Repo) AppendRows(ctx context.Context, recs []schema.OutputRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	sql := buildInsertSQL(r.table, len(recs))
	cmd, err := r.pool.Exec(ctx, sql, insertArgs(recs)...)
	if err != nil {
		return 0, &storage.LoadError{Op: "insert", Err: err}
	}
	return cmd.RowsAffected(), nil
}

var _ storage.Repository = (*Repo)(nil)
