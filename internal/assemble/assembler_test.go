package assemble

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesmart/internal/config"
	"salesmart/internal/hierarchy"
	"salesmart/internal/sales"
	"salesmart/internal/source"
)

func testLabels() config.Labels {
	return config.Labels{
		RepresentativeOffices: []string{"Представители Киров", "Представители Ижевск"},
		Unknown:               "Не известен",
		UnknownFeminine:       "Не известна",
		RootRepresentatives:   "Представители",
		RootOffice:            "Офис",
	}
}

func record(docID, deptID, empID int64) sales.Record {
	return sales.Record{
		ShipmentDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		DocumentID:   docID,
		Number:       "N-1",
		DepartmentID: deptID,
		EmployeeID:   empID,
		Realization:  sales.RealizationNotChanged,
	}
}

func item(docID int64, code string, total int64) source.LineItem {
	return source.LineItem{DocumentID: docID, ItemCode: code, PriceTotal: decimal.NewFromInt(total)}
}

func strp(s string) *string { return &s }

func TestAssemble_EnrichedRow(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records:   []sales.Record{record(1, 7, 40)},
		LineItems: []source.LineItem{item(1, "SKU-1", 250)},
		Catalog: map[string]hierarchy.CatalogEntry{
			"SKU-1": {
				Name: "Кабель",
				Path: hierarchy.CategoryPath{RootFolder: strp("Электрика"), Folder1: strp("Кабели")},
			},
		},
		Departments: map[int64][]hierarchy.DepartmentLabels{
			7: {{Sector: "Сектор А", Section: "Отдел продаж", Department: "Дирекция"}},
		},
		Employees: []source.Employee{{ID: 40, FirstName: "Иван", LastName: "Петров"}},
		Labels:    testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.EmployeeName != "Иван П." {
		t.Errorf("employee name %q, want %q", r.EmployeeName, "Иван П.")
	}
	if r.ItemName == nil || *r.ItemName != "Кабель" {
		t.Errorf("item name %v, want Кабель", r.ItemName)
	}
	if r.RootFolder == nil || *r.RootFolder != "Электрика" {
		t.Errorf("root folder %v, want Электрика", r.RootFolder)
	}
	if r.Folder2 != nil || r.Folder3 != nil {
		t.Errorf("unset folder levels must stay nil: %+v", r)
	}
	if r.Sector != "Сектор А" || r.Section != "Отдел продаж" || r.Department != "Дирекция" {
		t.Errorf("department labels wrong: %+v", r)
	}
	if r.RootDepartment != "Офис" {
		t.Errorf("root department %q, want Офис", r.RootDepartment)
	}
	if !r.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("amount %s, want 250", r.Amount)
	}
}

func TestAssemble_RepresentativeOfficeRoot(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records:   []sales.Record{record(1, 7, 40)},
		LineItems: []source.LineItem{item(1, "SKU-1", 10)},
		Departments: map[int64][]hierarchy.DepartmentLabels{
			7: {{Sector: "С", Section: "О", Department: "Представители Киров"}},
		},
		Labels: testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].RootDepartment != "Представители" {
		t.Errorf("root department %q, want Представители", rows[0].RootDepartment)
	}
}

func TestAssemble_UnknownDepartmentGetsLabels(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records:   []sales.Record{record(1, 999, 40)},
		LineItems: []source.LineItem{item(1, "SKU-1", 10)},
		Labels:    testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.Department != "Не известен" || r.Sector != "Не известен" || r.RootDepartment != "Не известен" {
		t.Errorf("unknown masculine labels wrong: %+v", r)
	}
	if r.Section != "Не известна" {
		t.Errorf("section %q, want Не известна", r.Section)
	}
}

func TestAssemble_UnknownEmployeeAndItem(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records:   []sales.Record{record(1, 7, 12345)},
		LineItems: []source.LineItem{item(1, "MISSING", 10)},
		Departments: map[int64][]hierarchy.DepartmentLabels{
			7: {{Sector: "С", Section: "О", Department: "Д"}},
		},
		Labels: testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.EmployeeName != "Не известен" {
		t.Errorf("employee name %q, want unknown label", r.EmployeeName)
	}
	// Catalog misses stay nil until normalization.
	if r.ItemName != nil || r.RootFolder != nil {
		t.Errorf("catalog miss must leave nils: %+v", r)
	}
}

func TestAssemble_DepartmentFanOut(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records:   []sales.Record{record(1, 7, 40)},
		LineItems: []source.LineItem{item(1, "SKU-1", 10)},
		Departments: map[int64][]hierarchy.DepartmentLabels{
			7: {
				{Sector: "С1", Section: "О1", Department: "Д1"},
				{Sector: "С2", Section: "О2", Department: "Д2"},
			},
		},
		Labels: testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Sector != "С1" || rows[1].Sector != "С2" {
		t.Errorf("fan-out order wrong: %q, %q", rows[0].Sector, rows[1].Sector)
	}
}

func TestAssemble_RecordTimesItems(t *testing.T) {
	t.Parallel()

	recs := []sales.Record{record(1, 7, 40), record(1, 8, 41)}
	recs[1].Realization = sales.RealizationChanged

	in := Inputs{
		Records:   recs,
		LineItems: []source.LineItem{item(1, "A", 1), item(1, "B", 2), item(1, "C", 3)},
		Departments: map[int64][]hierarchy.DepartmentLabels{
			7: {{Sector: "С", Section: "О", Department: "Д"}},
			8: {{Sector: "С", Section: "О", Department: "Д"}},
		},
		Labels: testLabels(),
	}

	rows := Assemble(in)
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 2 records x 3 items = 6", len(rows))
	}
	changed := 0
	for _, r := range rows {
		if r.Realization == string(sales.RealizationChanged) {
			changed++
		}
	}
	if changed != 3 {
		t.Errorf("changed rows = %d, want 3", changed)
	}
}

func TestAssemble_NoLineItemsNoRows(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Records: []sales.Record{record(1, 7, 40)},
		Labels:  testLabels(),
	}
	if rows := Assemble(in); len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}
