// Package mssql implements source.Reader over SQL Server, where the
// operational ERP replica lives in production.
package mssql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"

	"salesmart/internal/hierarchy"
	"salesmart/internal/source"
)

type Reader struct {
	db *sql.DB
}

func init() {
	source.Register("mssql", New)
}

func New(ctx context.Context, cfg source.Config) (source.Reader, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() { _ = r.db.Close() }

func (r *Reader) Categories(ctx context.Context) ([]hierarchy.CategoryNode, error) {
	const q = `
SELECT nomenclature_id, nomenclature_code, name, folder, isFolder, deleted
FROM nomenclatures`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &source.ExtractionError{Op: "categories", Err: err}
	}
	defer rows.Close()

	var out []hierarchy.CategoryNode
	for rows.Next() {
		var (
			n        hierarchy.CategoryNode
			code     sql.NullString
			parent   sql.NullInt64
			isFolder sql.NullInt64
			deleted  sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &code, &n.Name, &parent, &isFolder, &deleted); err != nil {
			return nil, &source.ExtractionError{Op: "categories", Err: err}
		}
		n.Code = code.String
		n.ParentID = parent.Int64
		n.IsFolder = isFolder.Int64 != 0
		n.Deleted = deleted.Int64 != 0
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.ExtractionError{Op: "categories", Err: err}
	}
	return out, nil
}

func (r *Reader) Departments(ctx context.Context) ([]hierarchy.DepartmentNode, error) {
	const q = `
SELECT department_id, department_name, parent_department_id
FROM departments`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &source.ExtractionError{Op: "departments", Err: err}
	}
	defer rows.Close()

	var out []hierarchy.DepartmentNode
	for rows.Next() {
		var (
			n      hierarchy.DepartmentNode
			parent sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.Name, &parent); err != nil {
			return nil, &source.ExtractionError{Op: "departments", Err: err}
		}
		n.ParentID = parent.Int64
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.ExtractionError{Op: "departments", Err: err}
	}
	return out, nil
}

// Documents pushes the coarse selection down to the server: shipment
// documents inside the window plus every undeleted bill. The merger applies
// the exact predicates again in Go, so correctness does not hinge on this
// filter being tight.
func (r *Reader) Documents(ctx context.Context, start, end time.Time) ([]source.Document, error) {
	const q = `
SELECT document_id, number, document_type, department_id, employee_id,
       sbis_shipment_date, shipment, invoice_total_sum_calculated, deleted
FROM documents
WHERE (shipment = 1 AND sbis_shipment_date >= @p1 AND sbis_shipment_date < @p2 AND deleted = 0)
   OR (document_type = 'outbill' AND deleted = 0)`

	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, &source.ExtractionError{Op: "documents", Err: err}
	}
	defer rows.Close()

	var out []source.Document
	for rows.Next() {
		var (
			d        source.Document
			number   sql.NullString
			docType  sql.NullString
			dept     sql.NullInt64
			emp      sql.NullInt64
			shipDate sql.NullTime
			shipment sql.NullInt64
			total    decimal.NullDecimal
			deleted  sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &number, &docType, &dept, &emp, &shipDate, &shipment, &total, &deleted); err != nil {
			return nil, &source.ExtractionError{Op: "documents", Err: err}
		}
		d.Number = number.String
		d.Type = docType.String
		d.DepartmentID = dept.Int64
		d.EmployeeID = emp.Int64
		d.ShipmentDate = shipDate.Time
		d.Shipment = shipment.Int64 != 0
		d.InvoiceTotal = total.Decimal
		d.Deleted = deleted.Int64 != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.ExtractionError{Op: "documents", Err: err}
	}
	return out, nil
}

func (r *Reader) LineItems(ctx context.Context, start, end time.Time) ([]source.LineItem, error) {
	const q = `
SELECT dtp.document_id, dtp.nomenclature_code, dtp.nomenclature_price_total
FROM documents_tabular_part dtp
JOIN documents d ON d.document_id = dtp.document_id
WHERE d.shipment = 1 AND d.sbis_shipment_date >= @p1 AND d.sbis_shipment_date < @p2 AND d.deleted = 0`

	rows, err := r.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, &source.ExtractionError{Op: "line_items", Err: err}
	}
	defer rows.Close()

	var out []source.LineItem
	for rows.Next() {
		var (
			li    source.LineItem
			code  sql.NullString
			total decimal.NullDecimal
		)
		if err := rows.Scan(&li.DocumentID, &code, &total); err != nil {
			return nil, &source.ExtractionError{Op: "line_items", Err: err}
		}
		li.ItemCode = code.String
		li.PriceTotal = total.Decimal
		out = append(out, li)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.ExtractionError{Op: "line_items", Err: err}
	}
	return out, nil
}

func (r *Reader) Employees(ctx context.Context) ([]source.Employee, error) {
	const q = `
SELECT employee_id, first_name, last_name
FROM employees`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &source.ExtractionError{Op: "employees", Err: err}
	}
	defer rows.Close()

	var out []source.Employee
	for rows.Next() {
		var (
			e     source.Employee
			first sql.NullString
			last  sql.NullString
		)
		if err := rows.Scan(&e.ID, &first, &last); err != nil {
			return nil, &source.ExtractionError{Op: "employees", Err: err}
		}
		e.FirstName = first.String
		e.LastName = last.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.ExtractionError{Op: "employees", Err: err}
	}
	return out, nil
}

var _ source.Reader = (*Reader)(nil)
