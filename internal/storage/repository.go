// Package storage is the destination seam of the pipeline: a
// backend-agnostic repository for the analytic table plus the factory
// registry backends register with.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salesmart/internal/schema"
)

// Config selects and connects a destination backend.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Repository is the minimal surface the load stage needs. The destination
// schema is fixed (schema.Columns); backends only decide how to express it.
//
// IMPORTANT: AppendRows is a plain batch append with no dedup key. Creation
// and insertion are independent, non-transactional steps: a retry after a
// failed or partial insert WILL duplicate rows. Exactly-once, if required,
// belongs to the external scheduler, not here.
type Repository interface {
	Close()

	// EnsureTable creates the destination table if it does not exist.
	// Idempotent: it is a no-op, not an error, against an existing table.
	EnsureTable(ctx context.Context) error

	// EnsureMonths makes sure storage exists for each given calendar month
	// (first-of-month values). Backends without native partitioning no-op.
	EnsureMonths(ctx context.Context, months []time.Time) error

	// AppendRows appends the normalized batch and reports rows written.
	AppendRows(ctx context.Context, recs []schema.OutputRecord) (int64, error)
}

// LoadError wraps a destination failure. Table creation is retry-safe;
// the insert step is not (see Repository).
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MonthsOf returns the distinct first-of-month dates covering the batch,
// in ascending order. Used to drive EnsureMonths.
func MonthsOf(recs []schema.OutputRecord) []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, r := range recs {
		m := time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a destination backend under a kind (e.g. "postgres").
// Called from backend init() functions; double registration panics to fail
// fast on ambiguous wiring.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("storage: missing table")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
