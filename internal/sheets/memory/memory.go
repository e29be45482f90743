// Package memory is an in-process MonthExporter used when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budgeteer/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows map[string]sheets.MonthRow
	refs map[string]int
}

var _ sheets.MonthExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: map[string]sheets.MonthRow{}, refs: map[string]int{}}
}

// ExportMonth stores the row, replacing any earlier row with the same key.
func (e *Exporter) ExportMonth(_ context.Context, row sheets.MonthRow) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := row.Key()
	ref, ok := e.refs[key]
	if !ok {
		ref = len(e.refs) + 1
		e.refs[key] = ref
	}
	e.rows[key] = row
	return fmt.Sprintf("mem:%d", ref), nil
}

// Rows returns the exported rows ordered by key.
func (e *Exporter) Rows() []sheets.MonthRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sheets.MonthRow, 0, len(e.rows))
	for _, r := range e.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
