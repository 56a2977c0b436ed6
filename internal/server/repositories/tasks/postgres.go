// Package tasks implements the task store on PostgreSQL.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

const taskColumns = `id, account_id, title, description, due_date, completed, completed_at,
		created_at, extension_count, last_extended_at, original_due_date`

var orderBy = map[models.SortKey]string{
	models.SortCreatedDesc: "created_at DESC, id",
	models.SortCreatedAsc:  "created_at ASC, id",
	models.SortDueAsc:      "due_date ASC, id",
	models.SortDueDesc:     "due_date DESC, id",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t              models.Task
		description    sql.NullString
		completedAt    sql.NullTime
		lastExtendedAt sql.NullTime
		originalDue    sql.NullTime
	)

	err := row.Scan(&t.ID, &t.AccountID, &t.Title, &description, &t.DueDate, &t.Completed, &completedAt,
		&t.CreatedAt, &t.ExtensionCount, &lastExtendedAt, &originalDue)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.DueDate = timex.DateOf(t.DueDate)
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if lastExtendedAt.Valid {
		t.LastExtendedAt = &lastExtendedAt.Time
	}
	if originalDue.Valid {
		d := timex.DateOf(originalDue.Time)
		t.OriginalDueDate = &d
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (account_id, title, description, due_date, completed, completed_at,
		                    extension_count, last_extended_at, original_due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		task.AccountID, task.Title, nullString(task.Description), task.DueDate, task.Completed,
		nullTime(task.CompletedAt), task.ExtensionCount, nullTime(task.LastExtendedAt), nullTime(task.OriginalDueDate),
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND account_id = $2`, id, accountID)
}

func (r *PostgresRepository) LockByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND account_id = $2 FOR UPDATE`, id, accountID)
}

func (r *PostgresRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Update writes every mutable column. Owner and creation time never change.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query :=
		`UPDATE tasks
		 SET title = $3, description = $4, due_date = $5, completed = $6, completed_at = $7,
		     extension_count = $8, last_extended_at = $9, original_due_date = $10
		 WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.AccountID, task.Title, nullString(task.Description), task.DueDate, task.Completed,
		nullTime(task.CompletedAt), task.ExtensionCount, nullTime(task.LastExtendedAt), nullTime(task.OriginalDueDate))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, accountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, accountID string, sort models.SortKey) ([]*models.Task, error) {
	order, ok := orderBy[sort]
	if !ok {
		order = orderBy[models.SortCreatedDesc]
	}
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE account_id = $1 ORDER BY `+order, accountID)
}

func (r *PostgresRepository) ListByOwnerAndCompleted(ctx context.Context, accountID string, completed bool) ([]*models.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE account_id = $1 AND completed = $2 ORDER BY `+orderBy[models.SortCreatedDesc],
		accountID, completed)
}

func (r *PostgresRepository) ListOverdue(ctx context.Context, accountID string, today time.Time) ([]*models.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE account_id = $1 AND completed = FALSE AND due_date < $2 ORDER BY `+orderBy[models.SortDueAsc],
		accountID, timex.DateOf(today))
}

func (r *PostgresRepository) ListDueBetween(ctx context.Context, accountID string, from, to time.Time) ([]*models.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE account_id = $1 AND completed = FALSE AND due_date BETWEEN $2 AND $3 ORDER BY `+orderBy[models.SortDueAsc],
		accountID, timex.DateOf(from), timex.DateOf(to))
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
