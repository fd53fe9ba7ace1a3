// Package source reads run-scoped snapshots out of the operational store.
//
// The pipeline treats the store as a set of opaque read-only queries; all
// reshaping happens in Go. Backends register themselves with the factory the
// same way destination backends do, so the binary supports every compiled-in
// driver and the config picks one.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"salesmart/internal/hierarchy"
)

// DocTypeBill is the wire value the operational store uses for billing
// documents.
const DocTypeBill = "outbill"

// Document is one row of the document snapshot. The snapshot contains both
// the window's shipment documents and every undeleted bill; the merger
// applies the exact predicates itself.
type Document struct {
	ID           int64
	Number       string
	Type         string
	DepartmentID int64
	EmployeeID   int64
	ShipmentDate time.Time // zero when the document carries no shipment date
	Shipment     bool
	InvoiceTotal decimal.Decimal
	Deleted      bool
}

// LineItem is one tabular-part row of a document.
type LineItem struct {
	DocumentID int64
	ItemCode   string
	PriceTotal decimal.Decimal
}

type Employee struct {
	ID        int64
	FirstName string
	LastName  string
}

// Reader is the snapshot interface the extraction stage consumes. Every
// method is a single read-only query; failures come back wrapped in
// *ExtractionError.
type Reader interface {
	Close()

	Categories(ctx context.Context) ([]hierarchy.CategoryNode, error)
	Departments(ctx context.Context) ([]hierarchy.DepartmentNode, error)

	// Documents returns shipment documents with a shipment date in
	// [start, end) plus all undeleted bill documents, regardless of date.
	Documents(ctx context.Context, start, end time.Time) ([]Document, error)

	// LineItems returns tabular-part rows for the window's shipment
	// documents.
	LineItems(ctx context.Context, start, end time.Time) ([]LineItem, error)

	Employees(ctx context.Context) ([]Employee, error)
}

// ExtractionError wraps a failed source query. Fatal to the run: no partial
// extraction is usable.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Config selects and connects a source backend.
type Config struct {
	Kind string
	DSN  string
}

type factory func(ctx context.Context, cfg Config) (Reader, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a source backend under a kind (e.g. "mssql"). Called
// from backend init() functions; double registration panics to fail fast on
// ambiguous wiring.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("source: Register called with empty kind")
	}
	if f == nil {
		panic("source: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("source: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Reader using the registered backend factory.
func New(ctx context.Context, cfg Config) (Reader, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("source: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported source.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
