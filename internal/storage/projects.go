package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
)

const selectProjectByID = `SELECT id, name, created_at FROM projects WHERE id = ?`

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p         core.Project
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		return core.Project{}, err
	}
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}

// ListProjects returns every project sorted by name ascending. The result
// is never nil.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	if err := r.Ready(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM projects ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.translate(err, "list projects")
	}
	defer rows.Close()

	projects := make([]core.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, r.translate(err, "scan project")
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.translate(err, "list projects")
	}
	return projects, nil
}

// GetProject returns the project with the given id.
func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	if err := r.Ready(); err != nil {
		return core.Project{}, err
	}

	p, err := scanProject(r.db.QueryRowContext(ctx, selectProjectByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, core.Errorf(core.CodeNotFound, "project %d not found", id)
	}
	if err != nil {
		return core.Project{}, r.translate(err, "get project")
	}
	return p, nil
}

// CreateProject inserts a project with the trimmed name and returns the
// stored row. A name already in use fails with CodeDuplicateName and leaves
// no row behind.
func (r *SQLiteRepository) CreateProject(ctx context.Context, name string) (core.Project, error) {
	if err := r.Ready(); err != nil {
		return core.Project{}, err
	}
	name, err := core.NormalizeProjectName(name)
	if err != nil {
		return core.Project{}, err
	}

	var created core.Project
	err = r.withTx(ctx, "create project", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (name, created_at) VALUES (?, ?)`,
			name, toMillis(r.now()))
		if err != nil {
			if isUniqueViolation(err) {
				return core.WrapError(core.CodeDuplicateName,
					fmt.Sprintf("a project named %q already exists", name), err)
			}
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read project id: %w", err)
		}
		created, err = scanProject(tx.QueryRowContext(ctx, selectProjectByID, id))
		if err != nil {
			return fmt.Errorf("read back project: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Project{}, err
	}

	slog.InfoContext(ctx, "Project created", "id", created.ID, "name", created.Name)
	return created, nil
}

// DeleteProject removes the project; the schema cascade removes its
// expenses in the same transaction. It returns the receipt references the
// removed expenses pointed to.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) ([]string, error) {
	if err := r.Ready(); err != nil {
		return nil, err
	}

	var receipts []string
	err := r.withTx(ctx, "delete project", func(tx *sql.Tx) error {
		paths, err := queryReceiptPaths(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		if n == 0 {
			return core.Errorf(core.CodeNotFound, "project %d not found", id)
		}
		receipts = paths
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Project deleted", "id", id, "expenses_removed", len(receipts))
	return receipts, nil
}

func queryReceiptPaths(ctx context.Context, tx *sql.Tx, projectID int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT receipt_image_path FROM expenses WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list receipt paths: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan receipt path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
