package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/metrics"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// TaskService implements the task lifecycle. Every operation resolves the
// acting account by username first; operations on an existing task then
// resolve ownership and only proceed for the owner.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	logger      logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, clock timex.Clock, logger logging.Logger) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		clock:       clock,
		logger:      logger.With("module", "tasks"),
	}
}

// Create stores a new incomplete task owned by username.
func (s *TaskService) Create(ctx context.Context, username, title, description string, dueDate time.Time) (task *models.Task, err error) {
	defer func(start time.Time) { metrics.Observe("create", start, err) }(time.Now())

	if err := models.ValidateTaskFields(title, description, dueDate); err != nil {
		return nil, err
	}

	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}

	task, err = s.repomanager.Tasks(s.db).Create(ctx, models.NewTask(account.ID, title, description, dueDate))
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Info(ctx, "task created", "username", username, "task_id", task.ID)
	return task, nil
}

// List returns the account's tasks in the order named by sortKey. Unknown
// sort keys fall back to newest first.
func (s *TaskService) List(ctx context.Context, username, sortKey string) ([]*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).ListByOwner(ctx, account.ID, models.ParseSortKey(sortKey))
}

// Get returns an owned task, failing with common.ErrorTaskNotFound or
// common.ErrorUnauthorized otherwise.
func (s *TaskService) Get(ctx context.Context, taskID, username string) (*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}

	own, err := ResolveOwnership(ctx, s.repomanager.Tasks(s.db), taskID, account.ID, false)
	if err != nil {
		return nil, err
	}
	if err := own.Err(); err != nil {
		return nil, err
	}
	return own.Task, nil
}

// Find is the optional lookup: a missing or foreign task yields (nil, nil).
func (s *TaskService) Find(ctx context.Context, taskID, username string) (*models.Task, error) {
	task, err := s.Get(ctx, taskID, username)
	switch {
	case err == nil:
		return task, nil
	case errorIsAny(err, common.ErrorTaskNotFound, common.ErrorUnauthorized):
		return nil, nil
	default:
		return nil, err
	}
}

// Edit overwrites title, description and due date of an owned task.
func (s *TaskService) Edit(ctx context.Context, taskID, username, title, description string, dueDate time.Time) (task *models.Task, err error) {
	defer func(start time.Time) { metrics.Observe("edit", start, err) }(time.Now())

	if err := models.ValidateTaskFields(title, description, dueDate); err != nil {
		return nil, err
	}

	task, err = s.mutateOwned(ctx, taskID, username, func(t *models.Task) error {
		t.ApplyEdit(title, description, dueDate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "task edited", "username", username, "task_id", taskID)
	return task, nil
}

// Toggle flips the completion flag of an owned task.
func (s *TaskService) Toggle(ctx context.Context, taskID, username string) (task *models.Task, err error) {
	defer func(start time.Time) { metrics.Observe("toggle", start, err) }(time.Now())

	task, err = s.mutateOwned(ctx, taskID, username, func(t *models.Task) error {
		t.ToggleCompletion(s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "task toggled", "username", username, "task_id", taskID, "completed", task.Completed)
	return task, nil
}

// Delete permanently removes an owned task.
func (s *TaskService) Delete(ctx context.Context, taskID, username string) (err error) {
	defer func(start time.Time) { metrics.Observe("delete", start, err) }(time.Now())

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := resolveAccount(ctx, s.repomanager.Accounts(tx), username)
		if err != nil {
			return err
		}

		repo := s.repomanager.Tasks(tx)
		own, err := ResolveOwnership(ctx, repo, taskID, account.ID, true)
		if err != nil {
			return err
		}
		if err := own.Err(); err != nil {
			logOwnershipFailure(ctx, s.logger, "delete", username, taskID, own)
			return err
		}

		if err := repo.Delete(ctx, taskID, account.ID); err != nil {
			return fmt.Errorf("error deleting task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "task deleted", "username", username, "task_id", taskID)
	return nil
}

// Completed lists completed tasks, newest first.
func (s *TaskService) Completed(ctx context.Context, username string) ([]*models.Task, error) {
	return s.listByCompletion(ctx, username, true)
}

// Incomplete lists open tasks, newest first.
func (s *TaskService) Incomplete(ctx context.Context, username string) ([]*models.Task, error) {
	return s.listByCompletion(ctx, username, false)
}

// Overdue lists open tasks due before today, earliest due date first.
func (s *TaskService) Overdue(ctx context.Context, username string) ([]*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).ListOverdue(ctx, account.ID, timex.Today(s.clock))
}

// DueSoon lists open tasks due between today and three days from now,
// both inclusive.
func (s *TaskService) DueSoon(ctx context.Context, username string) ([]*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}
	today := timex.Today(s.clock)
	return s.repomanager.Tasks(s.db).ListDueBetween(ctx, account.ID, today, timex.AddDays(today, common.DueSoonWindowDays))
}

func (s *TaskService) listByCompletion(ctx context.Context, username string, completed bool) ([]*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).ListByOwnerAndCompleted(ctx, account.ID, completed)
}

// mutateOwned locks an owned task, applies fn and writes it back within
// one transaction.
func (s *TaskService) mutateOwned(ctx context.Context, taskID, username string, fn func(*models.Task) error) (*models.Task, error) {
	var task *models.Task

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := resolveAccount(ctx, s.repomanager.Accounts(tx), username)
		if err != nil {
			return err
		}

		repo := s.repomanager.Tasks(tx)
		own, err := ResolveOwnership(ctx, repo, taskID, account.ID, true)
		if err != nil {
			return err
		}
		if err := own.Err(); err != nil {
			logOwnershipFailure(ctx, s.logger, "update", username, taskID, own)
			return err
		}

		if err := fn(own.Task); err != nil {
			return err
		}
		if err := repo.Update(ctx, own.Task); err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}
		task = own.Task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
