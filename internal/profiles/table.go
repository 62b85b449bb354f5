// Package profiles loads the per-student reference tables exported from the
// district systems (Frontline, SIS, NWEA). Every loader resolves to nil when
// its source is missing or holds no row for the student.
package profiles

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Table is a header plus rows read from a CSV file or a worksheet
type Table struct {
	Source string
	Header []string
	Rows   []Row
}

// Row is one record addressable by column name
type Row struct {
	index  map[string]int
	values []string
}

func newTable(source string, records [][]string) *Table {
	t := &Table{Source: source}
	if len(records) == 0 {
		return t
	}

	t.Header = make([]string, len(records[0]))
	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Header[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	for _, rec := range records[1:] {
		if len(rec) > len(t.Header) {
			// more fields than columns is a malformed line
			continue
		}
		t.Rows = append(t.Rows, Row{index: index, values: rec})
	}
	return t
}

// HasColumn reports whether the header contains name exactly
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// FindColumn returns the first header whose lower-cased name contains every
// needle, or "" when none does
func (t *Table) FindColumn(needles ...string) string {
	for _, h := range t.Header {
		name := strings.ToLower(h)
		ok := true
		for _, n := range needles {
			if !strings.Contains(name, strings.ToLower(n)) {
				ok = false
				break
			}
		}
		if ok {
			return h
		}
	}
	return ""
}

// Where returns the rows whose column equals value after id normalisation
func (t *Table) Where(column, value string) []Row {
	var out []Row
	want := normalizeID(value)
	for _, r := range t.Rows {
		if normalizeID(r.Get(column)) == want {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether the row's table has the column
func (r Row) Has(column string) bool {
	_, ok := r.index[column]
	return ok
}

// Get returns the trimmed cell value, empty when the column or cell is absent
func (r Row) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// Opt returns the trimmed cell value or nil when empty
func (r Row) Opt(column string) *string {
	v := r.Get(column)
	if v == "" {
		return nil
	}
	return &v
}

// Yes reports whether the cell holds "yes", case-insensitively
func (r Row) Yes(column string) bool {
	return strings.EqualFold(r.Get(column), "yes")
}

// normalizeID makes numeric ids exported as floats ("10147287.0") compare
// equal to their integer form
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		trimmed := strings.TrimSuffix(s, ".0")
		if trimmed != "" && strings.Trim(trimmed, "0123456789") == "" {
			return trimmed
		}
	}
	return s
}

// ReadCSV reads a CSV export. Files that are not valid UTF-8 are decoded as
// Latin-1, the encoding of Windows exports. Lines that cannot be parsed are
// skipped.
func ReadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s as latin1: %w", path, err)
		}
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return newTable(path, records), nil
}

// ReadXLSX reads a worksheet. An empty sheet name selects the first sheet.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s is empty", sheet, path)
	}
	return newTable(path, rows), nil
}
