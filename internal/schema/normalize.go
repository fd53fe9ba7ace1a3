// Package schema defines the strict output record of the datamart and the
// normalizer that coerces the staged dataset into it. This is the last
// validation gate before load; the loader trusts its output completely.
package schema

import (
	"fmt"
	"strconv"
	"time"
)

// Columns is the staged/destination column set, in wire order.
var Columns = []string{
	"date",
	"number",
	"root_department",
	"department",
	"section",
	"sector",
	"employee_name",
	"root_folder",
	"folder_1",
	"folder_2",
	"folder_3",
	"item_name",
	"amount",
	"realization",
}

// OutputRecord is one fully-normalized destination row. String fields are
// never empty-for-null ambiguous: nil inputs become "", by contract.
type OutputRecord struct {
	Date           time.Time // calendar date, no time component
	Number         string
	RootDepartment string
	Department     string
	Section        string
	Sector         string
	EmployeeName   string
	RootFolder     string
	Folder1        string
	Folder2        string
	Folder3        string
	ItemName       string
	Amount         float64
	Realization    string
}

// SchemaMismatchError reports a dataset the normalizer refuses to load:
// a required column is absent, or a value cannot be coerced to its declared
// type. Line is the 1-based data row, 0 when the whole dataset is at fault.
type SchemaMismatchError struct {
	Column string
	Value  any
	Line   int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("schema mismatch: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("schema mismatch: line %d column %q value %v: %s", e.Line, e.Column, e.Value, e.Reason)
}

// Normalize coerces positional rows (as produced by the staging reader:
// string values or nil) into OutputRecords.
//
// Coercion rules per column: "date" parses as YYYY-MM-DD, "amount" parses
// as a float, every other column becomes a string with nil replaced by "".
// The first offending value aborts the whole dataset; malformed rows are
// rejected, never dropped.
func Normalize(columns []string, rows [][]any) ([]OutputRecord, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	colIx := make([]int, len(Columns))
	for i, c := range Columns {
		j, ok := idx[c]
		if !ok {
			return nil, &SchemaMismatchError{Column: c, Reason: "required column absent"}
		}
		colIx[i] = j
	}

	out := make([]OutputRecord, 0, len(rows))
	for n, row := range rows {
		line := n + 1

		get := func(i int) any {
			j := colIx[i]
			if j >= len(row) {
				return nil
			}
			return row[j]
		}

		str := func(i int) (string, error) {
			v := get(i)
			if v == nil {
				return "", nil
			}
			if s, ok := v.(string); ok {
				return s, nil
			}
			return fmt.Sprint(v), nil
		}

		var rec OutputRecord
		var err error

		rawDate := get(0)
		ds, ok := rawDate.(string)
		if !ok || ds == "" {
			return nil, &SchemaMismatchError{Column: "date", Value: rawDate, Line: line, Reason: "not a date"}
		}
		rec.Date, err = time.Parse("2006-01-02", ds)
		if err != nil {
			return nil, &SchemaMismatchError{Column: "date", Value: ds, Line: line, Reason: "not a YYYY-MM-DD date"}
		}

		rec.Amount, err = toFloat(get(12))
		if err != nil {
			return nil, &SchemaMismatchError{Column: "amount", Value: get(12), Line: line, Reason: err.Error()}
		}

		dst := []*string{
			nil, // date
			&rec.Number,
			&rec.RootDepartment,
			&rec.Department,
			&rec.Section,
			&rec.Sector,
			&rec.EmployeeName,
			&rec.RootFolder,
			&rec.Folder1,
			&rec.Folder2,
			&rec.Folder3,
			&rec.ItemName,
			nil, // amount
			&rec.Realization,
		}
		for i, d := range dst {
			if d == nil {
				continue
			}
			*d, err = str(i)
			if err != nil {
				return nil, &SchemaMismatchError{Column: Columns[i], Value: get(i), Line: line, Reason: err.Error()}
			}
		}

		out = append(out, rec)
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("amount is missing")
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported amount type %T", v)
	}
}
