package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
)

const expenseColumns = `id, project_id, receipt_image_path, receipt_date, store_name,
	total_amount, currency, location, date_added, ocr_raw_text`

const selectExpenseByID = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                                     core.Expense
		receiptDate, storeName, currency, loc sql.NullString
		ocrText                               sql.NullString
		total                                 sql.NullInt64
		dateAdded                             int64
	)
	err := row.Scan(&e.ID, &e.ProjectID, &e.ReceiptImagePath, &receiptDate, &storeName,
		&total, &currency, &loc, &dateAdded, &ocrText)
	if err != nil {
		return core.Expense{}, err
	}
	e.ReceiptDate = receiptDate.String
	e.StoreName = storeName.String
	e.Currency = currency.String
	e.Location = loc.String
	e.OCRRawText = ocrText.String
	if total.Valid {
		e.TotalAmount = &core.Money{Cents: total.Int64}
	}
	e.DateAdded = fromMillis(dateAdded)
	return e, nil
}

// ListExpenses returns the expenses of a project ordered by date_added
// ascending, ties broken by id. The result is never nil.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, projectID int64) ([]core.Expense, error) {
	if err := r.Ready(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE project_id = ? ORDER BY date_added ASC, id ASC`,
		projectID)
	if err != nil {
		return nil, r.translate(err, "list expenses")
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, r.translate(err, "scan expense")
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.translate(err, "list expenses")
	}
	return expenses, nil
}

// CountExpenses returns how many expenses reference the project.
func (r *SQLiteRepository) CountExpenses(ctx context.Context, projectID int64) (int, error) {
	if err := r.Ready(); err != nil {
		return 0, err
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, r.translate(err, "count expenses")
	}
	return n, nil
}

// GetExpense returns the expense with the given id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	if err := r.Ready(); err != nil {
		return core.Expense{}, err
	}

	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpenseByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.Errorf(core.CodeNotFound, "expense %d not found", id)
	}
	if err != nil {
		return core.Expense{}, r.translate(err, "get expense")
	}
	return e, nil
}

// CreateExpense inserts an expense and returns the stored row. A project id
// that does not exist fails with CodeForeignKey and inserts nothing.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	if err := r.Ready(); err != nil {
		return core.Expense{}, err
	}
	in, err := in.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	var created core.Expense
	err = r.withTx(ctx, "create expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO expenses
			(project_id, receipt_image_path, receipt_date, store_name, total_amount,
			 currency, location, date_added, ocr_raw_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ProjectID,
			in.ReceiptImagePath,
			nullString(in.ReceiptDate),
			nullString(in.StoreName),
			nullMoney(in.TotalAmount),
			nullString(in.Currency),
			nullString(in.Location),
			toMillis(r.now()),
			nullString(in.OCRRawText),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return core.WrapError(core.CodeForeignKey,
					fmt.Sprintf("project %d does not exist", in.ProjectID), err)
			}
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read expense id: %w", err)
		}
		created, err = scanExpense(tx.QueryRowContext(ctx, selectExpenseByID, id))
		if err != nil {
			return fmt.Errorf("read back expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense created",
		"id", created.ID,
		"project_id", created.ProjectID,
		"receipt", created.ReceiptImagePath)
	return created, nil
}

// UpdateExpenseDetails replaces the optional OCR/manual fields of an
// expense. The project, receipt reference and date_added are immutable.
func (r *SQLiteRepository) UpdateExpenseDetails(ctx context.Context, id int64, details core.ExpenseDetails) (core.Expense, error) {
	if err := r.Ready(); err != nil {
		return core.Expense{}, err
	}
	details, err := details.Normalize()
	if err != nil {
		return core.Expense{}, err
	}

	var updated core.Expense
	err = r.withTx(ctx, "update expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE expenses SET
			receipt_date = ?, store_name = ?, total_amount = ?, currency = ?,
			location = ?, ocr_raw_text = ?
			WHERE id = ?`,
			nullString(details.ReceiptDate),
			nullString(details.StoreName),
			nullMoney(details.TotalAmount),
			nullString(details.Currency),
			nullString(details.Location),
			nullString(details.OCRRawText),
			id,
		)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		if n == 0 {
			return core.Errorf(core.CodeNotFound, "expense %d not found", id)
		}
		updated, err = scanExpense(tx.QueryRowContext(ctx, selectExpenseByID, id))
		if err != nil {
			return fmt.Errorf("read back expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense updated", "id", id)
	return updated, nil
}

// DeleteExpense removes an expense and returns the receipt reference it
// pointed to.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (string, error) {
	if err := r.Ready(); err != nil {
		return "", err
	}

	var receipt string
	err := r.withTx(ctx, "delete expense", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT receipt_image_path FROM expenses WHERE id = ?`, id).Scan(&receipt)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Errorf(core.CodeNotFound, "expense %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("read expense: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return receipt, nil
}
