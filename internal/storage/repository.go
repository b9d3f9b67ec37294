// Package storage is the SQLite record store for projects and expenses. It
// owns the schema (applied through versioned migrations), enforces name
// uniqueness, referential integrity and cascading deletes, and exposes the
// read/write operations used by the expense service.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

// Phase is the lifecycle phase of a repository. It only moves forward:
// uninitialized -> ready -> unavailable.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseReady
	PhaseUnavailable
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseReady:
		return "ready"
	default:
		return "unavailable"
	}
}

type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
	phase  atomic.Int32
	now    func() time.Time

	schemaVersion uint
}

// Option customizes a repository.
type Option func(*SQLiteRepository)

// WithClock overrides the clock used for created_at and date_added.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) {
		r.now = now
	}
}

// NewSQLiteRepository opens the database file at dbPath. The repository
// starts uninitialized: Init must succeed before any query is accepted.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	cleanPath := filepath.Clean(dbPath)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, core.WrapError(core.CodeIO, "create db directory", err)
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: every statement and transaction is sequenced, so an
	// insert and its read-back can never interleave with another call.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:     db,
		dbPath: cleanPath,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// Init applies pending migrations and verifies foreign keys are enforced,
// then moves the repository to the ready phase. It is safe to call on every
// process start and more than once.
func (r *SQLiteRepository) Init(ctx context.Context) error {
	if r.Phase() == PhaseUnavailable {
		return core.NewError(core.CodeUnavailable, "store is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	version, err := RunMigrations(r.dbPath)
	if err != nil {
		return core.WrapError(core.CodeUninitialized, "initialize schema", err)
	}
	if err := r.ensureForeignKeysEnabled(ctx); err != nil {
		return core.WrapError(core.CodeUninitialized, "initialize schema", err)
	}

	r.schemaVersion = version
	if r.phase.CompareAndSwap(int32(PhaseUninitialized), int32(PhaseReady)) {
		slog.InfoContext(ctx, "Record store ready", "path", r.dbPath, "schema_version", version)
	}
	return nil
}

func (r *SQLiteRepository) ensureForeignKeysEnabled(ctx context.Context) error {
	var enabled int
	if err := r.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// Phase reports the current lifecycle phase.
func (r *SQLiteRepository) Phase() Phase {
	return Phase(r.phase.Load())
}

// SchemaVersion returns the migration version applied by Init.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

// Close releases the connection. The repository is unavailable afterwards.
func (r *SQLiteRepository) Close() error {
	r.phase.Store(int32(PhaseUnavailable))
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ready returns nil in the ready phase and the coded lifecycle error
// otherwise.
func (r *SQLiteRepository) Ready() error {
	switch r.Phase() {
	case PhaseReady:
		return nil
	case PhaseUninitialized:
		return core.NewError(core.CodeUninitialized, "store is not initialized")
	default:
		return core.NewError(core.CodeUnavailable, "store is unavailable")
	}
}

// translate maps driver failures to coded errors. Constraint violations are
// classified by the callers, which know what the constraint means.
func (r *SQLiteRepository) translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if core.CodeOf(err) != core.CodeInternal {
		return err
	}
	if isClosedError(err) {
		r.phase.Store(int32(PhaseUnavailable))
		return core.WrapError(core.CodeUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.translate(err, op+": begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return r.translate(err, op)
	}
	if err := tx.Commit(); err != nil {
		return r.translate(err, op+": commit")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMoney(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}
