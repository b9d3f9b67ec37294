package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one second per call so that
// date_added ordering is deterministic.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newReadyRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "expenses.db")
	repo, err := NewSQLiteRepository(dbPath, WithClock(stepClock()))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Init(context.Background()))
	return repo, dbPath
}

func TestNewSQLiteRepositoryRequiresPath(t *testing.T) {
	_, err := NewSQLiteRepository("  ")
	require.Error(t, err)
}

func TestQueriesBeforeInitFail(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	assert.Equal(t, PhaseUninitialized, repo.Phase())

	_, err = repo.ListProjects(ctx)
	assert.ErrorIs(t, err, core.ErrUninitialized)
	_, err = repo.CreateProject(ctx, "Travel")
	assert.ErrorIs(t, err, core.ErrUninitialized)
	_, err = repo.ListExpenses(ctx, 1)
	assert.ErrorIs(t, err, core.ErrUninitialized)
	_, err = repo.CreateExpense(ctx, core.NewExpense{ProjectID: 1, ReceiptImagePath: "receipts/a.png"})
	assert.ErrorIs(t, err, core.ErrUninitialized)
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, dbPath := newReadyRepo(t)
	assert.Equal(t, PhaseReady, repo.Phase())
	assert.Equal(t, uint(2), repo.SchemaVersion())

	p, err := repo.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: "receipts/a.jpeg"})
	require.NoError(t, err)

	// Same process, second call.
	require.NoError(t, repo.Init(ctx))
	require.NoError(t, repo.Close())

	// Second process start against the same file.
	again, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.Init(ctx))
	require.NoError(t, again.Init(ctx))

	projects, err := again.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p, projects[0])

	n, err := again.CountExpenses(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	repo, _ := newReadyRepo(t)
	require.NoError(t, repo.Close())

	assert.Equal(t, PhaseUnavailable, repo.Phase())
	_, err := repo.ListProjects(ctx)
	assert.ErrorIs(t, err, core.ErrUnavailable)
	_, err = repo.CreateProject(ctx, "Late")
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.ErrorIs(t, repo.Init(ctx), core.ErrUnavailable)
}

func TestForeignKeysEnforced(t *testing.T) {
	repo, _ := newReadyRepo(t)
	var enabled int
	require.NoError(t, repo.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}
