// Package memory is an in-process exporter used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

var _ sheets.ExpenseExporter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Store {
	return &Store{}
}

// Export appends the rows, writing the header first on an empty sheet.
func (s *Store) Export(ctx context.Context, project core.Project, expenses []core.Expense) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		s.rows = append(s.rows, append([]string(nil), sheets.Header...))
	}
	first := len(s.rows) + 1
	for _, e := range expenses {
		s.rows = append(s.rows, sheets.Row(project, e))
	}
	return fmt.Sprintf("mem:%d-%d", first, len(s.rows)), nil
}

// Rows returns a copy of everything written so far, header included.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
