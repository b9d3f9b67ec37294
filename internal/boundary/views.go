package boundary

import (
	"encoding/json"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// ProjectView is the JSON shape of a project.
type ProjectView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpenseView is the JSON shape of an expense. total_amount is a decimal
// number with two fraction digits.
type ExpenseView struct {
	ID               int64       `json:"id"`
	ProjectID        int64       `json:"project_id"`
	ReceiptImagePath string      `json:"receipt_image_path"`
	ReceiptDate      string      `json:"receipt_date,omitempty"`
	StoreName        string      `json:"store_name,omitempty"`
	TotalAmount      json.Number `json:"total_amount,omitempty"`
	Currency         string      `json:"currency,omitempty"`
	Location         string      `json:"location,omitempty"`
	OCRRawText       string      `json:"ocr_raw_text,omitempty"`
	DateAdded        time.Time   `json:"date_added"`
}

// DeletedView acknowledges a deletion.
type DeletedView struct {
	Deleted bool `json:"deleted"`
}

func NewProjectView(p core.Project) ProjectView {
	return ProjectView{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}

func NewProjectViews(ps []core.Project) []ProjectView {
	views := make([]ProjectView, len(ps))
	for i, p := range ps {
		views[i] = NewProjectView(p)
	}
	return views
}

func NewExpenseView(e core.Expense) ExpenseView {
	v := ExpenseView{
		ID:               e.ID,
		ProjectID:        e.ProjectID,
		ReceiptImagePath: e.ReceiptImagePath,
		ReceiptDate:      e.ReceiptDate,
		StoreName:        e.StoreName,
		Currency:         e.Currency,
		Location:         e.Location,
		OCRRawText:       e.OCRRawText,
		DateAdded:        e.DateAdded,
	}
	if e.TotalAmount != nil {
		v.TotalAmount = json.Number(e.TotalAmount.String())
	}
	return v
}

func NewExpenseViews(es []core.Expense) []ExpenseView {
	views := make([]ExpenseView, len(es))
	for i, e := range es {
		views[i] = NewExpenseView(e)
	}
	return views
}

// detailsInput is the JSON shape of the optional expense fields.
type detailsInput struct {
	ReceiptDate string      `json:"receipt_date"`
	StoreName   string      `json:"store_name"`
	TotalAmount json.Number `json:"total_amount"`
	Currency    string      `json:"currency"`
	Location    string      `json:"location"`
	OCRRawText  string      `json:"ocr_raw_text"`
}

func (in detailsInput) toDetails() (core.ExpenseDetails, error) {
	d := core.ExpenseDetails{
		ReceiptDate: in.ReceiptDate,
		StoreName:   in.StoreName,
		Currency:    in.Currency,
		Location:    in.Location,
		OCRRawText:  in.OCRRawText,
	}
	if amount := strings.TrimSpace(in.TotalAmount.String()); amount != "" {
		cents, err := core.ParseDecimalToCents(amount)
		if err != nil {
			return core.ExpenseDetails{}, err
		}
		d.TotalAmount = &core.Money{Cents: cents}
	}
	return d, nil
}

// expenseInput is the JSON shape of db:addExpense.
type expenseInput struct {
	ProjectID        int64  `json:"project_id"`
	ReceiptImagePath string `json:"receipt_image_path"`
	detailsInput
}

func (in expenseInput) toNewExpense() (core.NewExpense, error) {
	d, err := in.detailsInput.toDetails()
	if err != nil {
		return core.NewExpense{}, err
	}
	return core.NewExpense{
		ProjectID:        in.ProjectID,
		ReceiptImagePath: in.ReceiptImagePath,
		ExpenseDetails:   d,
	}, nil
}
