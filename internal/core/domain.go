package core

import (
	"strings"
	"time"
	"unicode"
)

const (
	maxProjectNameLen = 200
	maxDetailFieldLen = 500
	receiptDateLayout = "2006-01-02"
)

type (
	Money struct {
		Cents int64
	}

	Project struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	// ExpenseDetails holds the optional fields filled in by OCR extraction
	// or manual entry. Empty strings and a nil TotalAmount mean "absent".
	ExpenseDetails struct {
		ReceiptDate string // YYYY-MM-DD
		StoreName   string
		TotalAmount *Money
		Currency    string
		Location    string
		OCRRawText  string
	}

	// NewExpense is the input of an expense creation.
	NewExpense struct {
		ProjectID        int64
		ReceiptImagePath string
		ExpenseDetails
	}

	Expense struct {
		ID               int64
		ProjectID        int64
		ReceiptImagePath string
		ExpenseDetails
		DateAdded time.Time
	}
)

// NormalizeProjectName trims the name and rejects empty, overlong or
// control-character names.
func NormalizeProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewError(CodeValidation, "project name cannot be empty")
	}
	if len(name) > maxProjectNameLen {
		return "", Errorf(CodeValidation, "project name too long (max %d characters)", maxProjectNameLen)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", NewError(CodeValidation, "project name contains control characters")
	}
	return name, nil
}

// Normalize trims the detail fields, upper-cases the currency and validates
// formats. It returns the normalized copy.
func (d ExpenseDetails) Normalize() (ExpenseDetails, error) {
	d.ReceiptDate = strings.TrimSpace(d.ReceiptDate)
	d.StoreName = strings.TrimSpace(d.StoreName)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	d.Location = strings.TrimSpace(d.Location)

	if d.ReceiptDate != "" {
		if _, err := time.Parse(receiptDateLayout, d.ReceiptDate); err != nil {
			return d, Errorf(CodeValidation, "invalid receipt date %q: expected YYYY-MM-DD", d.ReceiptDate)
		}
	}
	if d.TotalAmount != nil && d.TotalAmount.Cents < 0 {
		return d, NewError(CodeValidation, "total amount cannot be negative")
	}
	if d.Currency != "" {
		if len(d.Currency) != 3 || strings.IndexFunc(d.Currency, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return d, Errorf(CodeValidation, "invalid currency %q: expected a 3-letter code", d.Currency)
		}
	}
	for field, v := range map[string]string{"store name": d.StoreName, "location": d.Location} {
		if len(v) > maxDetailFieldLen {
			return d, Errorf(CodeValidation, "%s too long (max %d characters)", field, maxDetailFieldLen)
		}
	}
	return d, nil
}

// Validate checks the fields required to create an expense and returns the
// normalized input.
func (e NewExpense) Validate() (NewExpense, error) {
	e.ReceiptImagePath = strings.TrimSpace(e.ReceiptImagePath)
	if e.ReceiptImagePath == "" {
		return e, NewError(CodeValidation, "receipt image path is required")
	}
	details, err := e.ExpenseDetails.Normalize()
	if err != nil {
		return e, err
	}
	e.ExpenseDetails = details
	return e, nil
}
