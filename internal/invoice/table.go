package invoice

import (
	"sort"

	"github.com/zombor/invoice-extractor/internal/scanning"
)

// extraction is the outcome of one document before tabulation
type extraction struct {
	source string
	status Status
	err    error
	fields map[string]string
}

// buildTable unions the keys of every extraction into one column set and
// fills missing values with nil. Row order follows the extractions.
// Requested fields come first in prompt order, then any extra keys sorted.
func buildTable(extractions []extraction) *Table {
	t := &Table{
		Columns: make([]string, 0),
		Rows:    make([]Row, 0, len(extractions)),
	}

	union := make(map[string]bool)
	for _, e := range extractions {
		for key := range e.fields {
			union[key] = true
		}
	}
	t.Columns = append(t.Columns, orderedKeys(union)...)

	for _, e := range extractions {
		row := Row{
			Source: e.source,
			Status: e.status,
			Values: make(map[string]*string, len(t.Columns)),
		}
		if e.err != nil {
			row.Error = e.err.Error()
		}
		for _, c := range t.Columns {
			if v, ok := e.fields[c]; ok {
				row.Values[c] = &v
			} else {
				row.Values[c] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// orderedKeys lists keys with requested fields first
func orderedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for _, f := range scanning.InvoiceFields {
		if set[f] {
			keys = append(keys, f)
		}
	}

	var extra []string
	for k := range set {
		if !requestedField[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

var requestedField = func() map[string]bool {
	m := make(map[string]bool, len(scanning.InvoiceFields))
	for _, f := range scanning.InvoiceFields {
		m[f] = true
	}
	return m
}()
