// Package sheets exports project expenses to spreadsheets.
package sheets

import (
	"context"
	"strconv"
	"time"

	"expensetracker/internal/core"
)

// ExpenseExporter appends one row per expense of a project and returns a
// reference to the rows written.
type ExpenseExporter interface {
	Export(ctx context.Context, project core.Project, expenses []core.Expense) (rowRef string, err error)
}

// Header is the first row of an export sheet.
var Header = []string{
	"Project", "Expense", "Receipt date", "Store", "Total", "Currency", "Location", "Receipt", "Added",
}

// Row renders an expense in Header order. Absent fields are empty cells.
func Row(project core.Project, e core.Expense) []string {
	total := ""
	if e.TotalAmount != nil {
		total = e.TotalAmount.String()
	}
	return []string{
		project.Name,
		strconv.FormatInt(e.ID, 10),
		e.ReceiptDate,
		e.StoreName,
		total,
		e.Currency,
		e.Location,
		e.ReceiptImagePath,
		e.DateAdded.UTC().Format(time.RFC3339),
	}
}
