// Package pipeline wires the stages together: extraction (source →
// resolvers → merger → assembler → staging artifact) and load (staging →
// normalizer → destination).
//
// The two stages are independent units of retry communicating only through
// the staging artifact. Nothing here retries or times out; every failure
// propagates to the caller, which is the external scheduler's territory.
// The control flow is strictly sequential: a stage's output is the next
// stage's complete input.
package pipeline

import (
	"context"
	"log"
	"time"

	"salesmart/internal/assemble"
	"salesmart/internal/config"
	"salesmart/internal/hierarchy"
	"salesmart/internal/metrics"
	"salesmart/internal/sales"
	"salesmart/internal/schema"
	"salesmart/internal/source"
	"salesmart/internal/staging"
	"salesmart/internal/storage"
)

// Stages holds the factory seams. Production uses NewDefaultStages; tests
// substitute fakes.
type Stages struct {
	NewReader     func(ctx context.Context, cfg source.Config) (source.Reader, error)
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	Now           func() time.Time
}

func NewDefaultStages() *Stages {
	return &Stages{
		NewReader:     source.New,
		NewRepository: storage.New,
		Now:           time.Now,
	}
}

// Extract runs the extraction stage and returns the staging artifact path.
//
// The whole source snapshot is materialized before any reshaping starts;
// all transforms after the reads are pure.
func (s *Stages) Extract(ctx context.Context, cfg config.Pipeline) (path string, err error) {
	defer observeStage("extract", s.Now(), &err)

	start, end, err := cfg.Window.Range()
	if err != nil {
		return "", err
	}

	rd, err := s.NewReader(ctx, source.Config{Kind: cfg.Source.Kind, DSN: cfg.Source.DSN})
	if err != nil {
		return "", &source.ExtractionError{Op: "connect", Err: err}
	}
	defer rd.Close()

	cats, err := rd.Categories(ctx)
	if err != nil {
		return "", err
	}
	deps, err := rd.Departments(ctx)
	if err != nil {
		return "", err
	}
	docs, err := rd.Documents(ctx, start, end)
	if err != nil {
		return "", err
	}
	items, err := rd.LineItems(ctx, start, end)
	if err != nil {
		return "", err
	}
	emps, err := rd.Employees(ctx)
	if err != nil {
		return "", err
	}

	catalog := hierarchy.ResolveCategories(cats)
	stacks, err := hierarchy.ResolveDepartments(deps, hierarchy.SeedConfig{
		SetAParents:     cfg.Departments.SeedSetAParents,
		SetBRoots:       cfg.Departments.SeedSetBRoots,
		SyntheticTopIDs: cfg.Departments.SyntheticTopIDs,
	})
	if err != nil {
		return "", err
	}
	roots, err := hierarchy.DepartmentRoots(deps)
	if err != nil {
		return "", err
	}

	recs := sales.Merge(docs, roots, sales.Config{
		WindowStart:       start,
		WindowEnd:         end,
		AttributionRootID: cfg.Attribution.RootDepartmentID,
	})

	rows := assemble.Assemble(assemble.Inputs{
		Records:     recs,
		LineItems:   items,
		Catalog:     catalog,
		Departments: stacks,
		Employees:   emps,
		Labels:      cfg.Labels,
	})

	metrics.IncCounter("salesmart_records_total", float64(len(recs)), metrics.Labels{"kind": "sales"})
	metrics.IncCounter("salesmart_records_total", float64(len(rows)), metrics.Labels{"kind": "assembled"})

	path, err = staging.Write(cfg.Staging.Dir, cfg.Staging.Prefix, s.Now(), rows)
	if err != nil {
		return "", err
	}
	log.Printf("extract: %d sales records, %d assembled rows, artifact=%s", len(recs), len(rows), path)
	return path, nil
}

// Load runs the load stage against an existing staging artifact: read,
// normalize, provision, append.
//
// Table and partition provisioning are idempotent and retry-safe; the
// append is not. A retry after a failed or partial append duplicates rows,
// which is the documented cost of the artifact-level retry granularity.
func (s *Stages) Load(ctx context.Context, cfg config.Pipeline, artifact string) (err error) {
	defer observeStage("load", s.Now(), &err)

	rows, err := staging.Read(ctx, artifact, schema.Columns, cfg.Staging.Options)
	if err != nil {
		return err
	}

	recs, err := schema.Normalize(schema.Columns, rows)
	if err != nil {
		return err
	}

	repo, err := s.NewRepository(ctx, storage.Config{
		Kind:  cfg.Storage.Kind,
		DSN:   cfg.Storage.DSN,
		Table: cfg.Storage.Table,
	})
	if err != nil {
		return &storage.LoadError{Op: "connect", Err: err}
	}
	defer repo.Close()

	if err := repo.EnsureTable(ctx); err != nil {
		return err
	}
	if err := repo.EnsureMonths(ctx, storage.MonthsOf(recs)); err != nil {
		return err
	}

	n, err := repo.AppendRows(ctx, recs)
	if err != nil {
		return err
	}

	metrics.IncCounter("salesmart_records_total", float64(n), metrics.Labels{"kind": "loaded"})
	log.Printf("load: %d rows appended to %s", n, cfg.Storage.Table)
	return nil
}

// Run executes extract then load as one sequential run.
func (s *Stages) Run(ctx context.Context, cfg config.Pipeline) error {
	artifact, err := s.Extract(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Load(ctx, cfg, artifact)
}

func observeStage(stage string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = "error"
	}
	labels := metrics.Labels{"stage": stage, "status": status}
	metrics.IncCounter("salesmart_stage_total", 1, labels)
	metrics.ObserveHistogram("salesmart_stage_duration_seconds", time.Since(start).Seconds(), labels)
}
