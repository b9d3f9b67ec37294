package storage

import (
	"context"
	"testing"

	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	p, err := repo.CreateProject(ctx, "Travel")
	require.NoError(t, err)

	in := core.NewExpense{
		ProjectID:        p.ID,
		ReceiptImagePath: "receipts/0b7c.jpeg",
		ExpenseDetails: core.ExpenseDetails{
			ReceiptDate: "2024-04-30",
			StoreName:   "Station Café",
			TotalAmount: &core.Money{Cents: 1890},
			Currency:    "eur",
			Location:    "Lyon",
			OCRRawText:  "TOTAL 18,90",
		},
	}
	e, err := repo.CreateExpense(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, e.ID)
	assert.Equal(t, p.ID, e.ProjectID)
	assert.Equal(t, "receipts/0b7c.jpeg", e.ReceiptImagePath)
	assert.Equal(t, "EUR", e.Currency)
	require.NotNil(t, e.TotalAmount)
	assert.Equal(t, int64(1890), e.TotalAmount.Cents)
	assert.False(t, e.DateAdded.IsZero())

	got, err := repo.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCreateExpenseOptionalFieldsAbsent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	p, err := repo.CreateProject(ctx, "Misc")
	require.NoError(t, err)
	e, err := repo.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: "receipts/x.png"})
	require.NoError(t, err)
	assert.Nil(t, e.TotalAmount)
	assert.Empty(t, e.StoreName)
	assert.Empty(t, e.ReceiptDate)
}

func TestCreateExpenseUnknownProject(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	for _, id := range []int64{0, 99} {
		_, err := repo.CreateExpense(ctx, core.NewExpense{ProjectID: id, ReceiptImagePath: "receipts/a.png"})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrForeignKey, "project %d", id)
	}

	var rows int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestCreateExpenseRequiresReceiptPath(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	p, err := repo.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: " "})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestListExpensesOrderedByDateAdded(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	a, err := repo.CreateProject(ctx, "A")
	require.NoError(t, err)
	b, err := repo.CreateProject(ctx, "B")
	require.NoError(t, err)

	refs := []string{"receipts/1.png", "receipts/2.png", "receipts/3.png"}
	for _, ref := range refs {
		_, err := repo.CreateExpense(ctx, core.NewExpense{ProjectID: a.ID, ReceiptImagePath: ref})
		require.NoError(t, err)
		_, err = repo.CreateExpense(ctx, core.NewExpense{ProjectID: b.ID, ReceiptImagePath: "other/" + ref})
		require.NoError(t, err)
	}

	expenses, err := repo.ListExpenses(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	for i, e := range expenses {
		assert.Equal(t, refs[i], e.ReceiptImagePath)
		assert.Equal(t, a.ID, e.ProjectID)
		if i > 0 {
			assert.True(t, e.DateAdded.After(expenses[i-1].DateAdded))
		}
	}

	none, err := repo.ListExpenses(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateExpenseDetails(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	p, err := repo.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	e, err := repo.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: "receipts/a.png"})
	require.NoError(t, err)

	updated, err := repo.UpdateExpenseDetails(ctx, e.ID, core.ExpenseDetails{
		StoreName:   "Hardware Store",
		TotalAmount: &core.Money{Cents: 4599},
		Currency:    "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hardware Store", updated.StoreName)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, e.DateAdded, updated.DateAdded)
	assert.Equal(t, e.ReceiptImagePath, updated.ReceiptImagePath)

	_, err = repo.UpdateExpenseDetails(ctx, e.ID, core.ExpenseDetails{ReceiptDate: "yesterday"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = repo.UpdateExpenseDetails(ctx, 999, core.ExpenseDetails{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)

	p, err := repo.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	e, err := repo.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: "receipts/a.png"})
	require.NoError(t, err)

	ref, err := repo.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipts/a.png", ref)

	_, err = repo.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.DeleteExpense(ctx, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// The project is untouched.
	_, err = repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
}
