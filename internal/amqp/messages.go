package amqp

import (
	"encoding/json"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// OCRRequestMessage asks the OCR collaborator to extract the details of a
// freshly stored receipt. The collaborator reads the image through the
// shared data directory using ReceiptPath.
type OCRRequestMessage struct {
	ExpenseID   int64     `json:"expense_id"`
	ProjectID   int64     `json:"project_id"`
	ReceiptPath string    `json:"receipt_path"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewOCRRequestMessage(expenseID, projectID int64, receiptPath string) *OCRRequestMessage {
	return &OCRRequestMessage{
		ExpenseID:   expenseID,
		ProjectID:   projectID,
		ReceiptPath: receiptPath,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *OCRRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OCRRequestMessageFromJSON(data []byte) (*OCRRequestMessage, error) {
	var msg OCRRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// OCRResultMessage carries the fields the OCR collaborator extracted for an
// expense. TotalAmount is a decimal string ("12.34" or "12,34").
type OCRResultMessage struct {
	ExpenseID   int64     `json:"expense_id"`
	ReceiptDate string    `json:"receipt_date,omitempty"`
	StoreName   string    `json:"store_name,omitempty"`
	TotalAmount string    `json:"total_amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Location    string    `json:"location,omitempty"`
	RawText     string    `json:"raw_text,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func OCRResultMessageFromJSON(data []byte) (*OCRResultMessage, error) {
	var msg OCRResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *OCRResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Details converts the message into expense details.
func (m *OCRResultMessage) Details() (core.ExpenseDetails, error) {
	d := core.ExpenseDetails{
		ReceiptDate: m.ReceiptDate,
		StoreName:   m.StoreName,
		Currency:    m.Currency,
		Location:    m.Location,
		OCRRawText:  m.RawText,
	}
	if amount := strings.TrimSpace(m.TotalAmount); amount != "" {
		cents, err := core.ParseDecimalToCents(amount)
		if err != nil {
			return core.ExpenseDetails{}, err
		}
		d.TotalAmount = &core.Money{Cents: cents}
	}
	return d.Normalize()
}
