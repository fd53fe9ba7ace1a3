// Package assemble joins the merged sales records with line items and the
// resolved hierarchies into the wide pre-staging dataset: one row per sales
// record × line item.
package assemble

import (
	"time"

	"github.com/shopspring/decimal"

	"salesmart/internal/config"
	"salesmart/internal/hierarchy"
	"salesmart/internal/sales"
	"salesmart/internal/source"
)

// Row is one assembled record. Department-side and employee labels are
// already defaulted here (the legacy datamart substitutes its unknown
// labels during assembly); category path fields and the item name keep nil
// for missing matches and fall to empty strings at normalization.
type Row struct {
	Date           time.Time
	Number         string
	RootDepartment string
	Department     string
	Section        string
	Sector         string
	EmployeeName   string
	RootFolder     *string
	Folder1        *string
	Folder2        *string
	Folder3        *string
	ItemName       *string
	Amount         decimal.Decimal
	Realization    string
}

// Inputs bundles everything the assembler enriches from.
type Inputs struct {
	Records     []sales.Record
	LineItems   []source.LineItem
	Catalog     map[string]hierarchy.CatalogEntry
	Departments map[int64][]hierarchy.DepartmentLabels
	Employees   []source.Employee
	Labels      config.Labels
}

// Assemble cartesian-joins each record to its document's line items and
// left-enriches the result.
//
// A department id with several hierarchy rows fans out: the record × item
// pair is emitted once per row, exactly as the upstream join would. A
// record whose document has no line items contributes nothing.
func Assemble(in Inputs) []Row {
	items := make(map[int64][]source.LineItem, len(in.LineItems))
	for _, li := range in.LineItems {
		items[li.DocumentID] = append(items[li.DocumentID], li)
	}

	emps := make(map[int64]source.Employee, len(in.Employees))
	for _, e := range in.Employees {
		emps[e.ID] = e
	}

	repOffices := make(map[string]struct{}, len(in.Labels.RepresentativeOffices))
	for _, l := range in.Labels.RepresentativeOffices {
		repOffices[l] = struct{}{}
	}

	var out []Row
	for _, rec := range in.Records {
		empName := displayName(emps, rec.EmployeeID, in.Labels.Unknown)

		for _, li := range items[rec.DocumentID] {
			var itemName *string
			var path hierarchy.CategoryPath
			if ce, ok := in.Catalog[li.ItemCode]; ok {
				name := ce.Name
				itemName = &name
				path = ce.Path
			}

			base := Row{
				Date:         rec.ShipmentDate,
				Number:       rec.Number,
				EmployeeName: empName,
				RootFolder:   path.RootFolder,
				Folder1:      path.Folder1,
				Folder2:      path.Folder2,
				Folder3:      path.Folder3,
				ItemName:     itemName,
				Amount:       li.PriceTotal,
				Realization:  string(rec.Realization),
			}

			stacks := in.Departments[rec.DepartmentID]
			if len(stacks) == 0 {
				r := base
				r.Department = in.Labels.Unknown
				r.Section = in.Labels.UnknownFeminine
				r.Sector = in.Labels.Unknown
				r.RootDepartment = in.Labels.Unknown
				out = append(out, r)
				continue
			}
			for _, st := range stacks {
				r := base
				r.Department = st.Department
				r.Section = st.Section
				r.Sector = st.Sector
				if _, rep := repOffices[st.Department]; rep {
					r.RootDepartment = in.Labels.RootRepresentatives
				} else {
					r.RootDepartment = in.Labels.RootOffice
				}
				out = append(out, r)
			}
		}
	}
	return out
}

// displayName renders "First L." or the unknown label when the employee or
// the last name is missing. The initial is a rune, not a byte; names here
// are mostly Cyrillic.
func displayName(emps map[int64]source.Employee, id int64, unknown string) string {
	e, ok := emps[id]
	if !ok || e.LastName == "" {
		return unknown
	}
	return e.FirstName + " " + string([]rune(e.LastName)[0]) + "."
}
