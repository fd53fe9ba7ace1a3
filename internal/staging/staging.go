// Package staging writes and reads the CSV artifact bridging the two
// pipeline stages. The artifact is the coarse checkpoint: the load stage
// can be retried from it without re-running the extraction.
package staging

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salesmart/internal/assemble"
	"salesmart/internal/config"
	"salesmart/internal/schema"
)

// IOError wraps an artifact read or write failure. Fatal to the stage, but
// the extraction need not be repeated if the artifact still exists.
type IOError struct {
	Op   string // "write" | "read"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Write materializes the assembled dataset as a timestamped CSV under dir
// and returns the artifact path. One file per run; nil fields are written
// as empty cells (the normalizer maps them back deterministically, so the
// round trip is lossless for the output schema).
func Write(dir, prefix string, now time.Time, rows []assemble.Row) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "write", Path: dir, Err: err}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(schema.Columns); err != nil {
		_ = f.Close()
		return "", &IOError{Op: "write", Path: path, Err: err}
	}

	rec := make([]string, len(schema.Columns))
	for _, r := range rows {
		rec[0] = r.Date.Format("2006-01-02")
		rec[1] = r.Number
		rec[2] = r.RootDepartment
		rec[3] = r.Department
		rec[4] = r.Section
		rec[5] = r.Sector
		rec[6] = r.EmployeeName
		rec[7] = deref(r.RootFolder)
		rec[8] = deref(r.Folder1)
		rec[9] = deref(r.Folder2)
		rec[10] = deref(r.Folder3)
		rec[11] = deref(r.ItemName)
		rec[12] = r.Amount.String()
		rec[13] = r.Realization
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return "", &IOError{Op: "write", Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Read loads the artifact back as positional rows aligned to columns.
// Header names map by exact match after trimming; empty cells become nil.
//
// Options: "comma" (string, first rune), "trim_space" (bool, default true),
// "skip_rows" (int, preamble lines before the header), "null_literal"
// (string, extra cell value read as nil), "header_aliases" (string map,
// artifact header name → canonical column name). The last three exist for
// artifacts produced by the legacy job rather than by Write.
func Read(ctx context.Context, path string, columns []string, opt config.Options) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	trim := opt.Bool("trim_space", true)
	nullLiteral := opt.String("null_literal", "")
	aliases := opt.StringMap("header_aliases")

	cr := csv.NewReader(f)
	cr.Comma = opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	for skip := opt.Int("skip_rows", 0); skip > 0; skip-- {
		if _, err := cr.Read(); err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: fmt.Errorf("skip preamble: %w", err)}
		}
	}

	hdr, err := cr.Read()
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	srcToIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if canon, ok := aliases[h]; ok {
			h = canon
		}
		srcToIdx[h] = i
	}
	colIx := make([]int, len(columns))
	for i, c := range columns {
		if j, ok := srcToIdx[c]; ok {
			colIx[i] = j
		} else {
			colIx[i] = -1
		}
	}

	var out [][]any
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}

		row := make([]any, len(columns))
		for i, j := range colIx {
			if j < 0 || j >= len(rec) {
				continue
			}
			v := rec[j]
			if trim {
				v = strings.TrimSpace(v)
			}
			if v == "" || (nullLiteral != "" && v == nullLiteral) {
				continue
			}
			row[i] = v
		}
		out = append(out, row)
	}
}
