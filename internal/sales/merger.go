// Package sales selects the run's sales records and resolves
// author/owner attribution mismatches between shipping and billing
// documents.
package sales

import (
	"time"

	"salesmart/internal/source"
)

// Realization tags how a record's attribution was decided.
type Realization string

const (
	// RealizationChanged marks a record re-attributed to the billing
	// document's department and employee.
	RealizationChanged Realization = "changed"
	// RealizationNotChanged marks a record kept on the shipment's own
	// attribution. Wire value keeps the legacy space.
	RealizationNotChanged Realization = "not changed"
)

// Record is one attributed sales record. Many records can share a document;
// the assembler later fans each one out across the document's line items.
type Record struct {
	ShipmentDate time.Time
	DocumentID   int64
	Number       string
	DepartmentID int64
	EmployeeID   int64
	Realization  Realization
}

// Config carries the selection window and the attribution anchor.
type Config struct {
	WindowStart time.Time // inclusive
	WindowEnd   time.Time // exclusive
	// AttributionRootID: the changed branch only fires for shipments whose
	// department resolves to this root.
	AttributionRootID int64
}

// Merge evaluates the two attribution branches over the document snapshot
// and unions their output without deduplication.
//
// Base branch: every undeleted shipment document inside the window with a
// positive invoice total, attributed to its own department and employee.
//
// Changed branch: for each base-branch document under the attribution root,
// every undeleted bill sharing its number but carrying a different
// employee produces an additional record attributed to the bill's
// department and employee. A shipment matching several such bills yields
// several records.
//
// A document satisfying both branches deliberately appears twice; the
// duplicated revenue row reproduces the upstream datamart's semantics and
// must not be collapsed here. Output order carries no guarantee.
func Merge(docs []source.Document, deptRoots map[int64]int64, cfg Config) []Record {
	inBase := func(d source.Document) bool {
		return d.Shipment &&
			!d.Deleted &&
			!d.ShipmentDate.Before(cfg.WindowStart) &&
			d.ShipmentDate.Before(cfg.WindowEnd) &&
			d.InvoiceTotal.IsPositive()
	}

	billsByNumber := make(map[string][]source.Document)
	for _, d := range docs {
		if d.Type == source.DocTypeBill && !d.Deleted {
			billsByNumber[d.Number] = append(billsByNumber[d.Number], d)
		}
	}

	var out []Record

	for _, d := range docs {
		if !inBase(d) {
			continue
		}
		if deptRoots[d.DepartmentID] != cfg.AttributionRootID {
			continue
		}
		for _, bill := range billsByNumber[d.Number] {
			if bill.EmployeeID == d.EmployeeID {
				continue
			}
			out = append(out, Record{
				ShipmentDate: d.ShipmentDate,
				DocumentID:   d.ID,
				Number:       d.Number,
				DepartmentID: bill.DepartmentID,
				EmployeeID:   bill.EmployeeID,
				Realization:  RealizationChanged,
			})
		}
	}

	for _, d := range docs {
		if !inBase(d) {
			continue
		}
		out = append(out, Record{
			ShipmentDate: d.ShipmentDate,
			DocumentID:   d.ID,
			Number:       d.Number,
			DepartmentID: d.DepartmentID,
			EmployeeID:   d.EmployeeID,
			Realization:  RealizationNotChanged,
		})
	}

	return out
}
