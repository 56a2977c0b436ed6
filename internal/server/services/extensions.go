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

// ExtensionPreview is the outcome of a dry-run extension.
type ExtensionPreview struct {
	TaskID         string
	CurrentDueDate time.Time
	NewDueDate     time.Time
	ExtensionDays  int
}

// ExtensionInfo describes an extendable task for an extension form.
type ExtensionInfo struct {
	TaskID           string
	Title            string
	CurrentDueDate   time.Time
	MaxExtensionDays int
}

// ExtensionService applies due date extensions to tasks inside the
// eligibility window.
type ExtensionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      *DatePolicy
	clock       timex.Clock
	logger      logging.Logger
}

func NewExtensionService(db *sql.DB, m repomanager.RepositoryManager, clock timex.Clock, logger logging.Logger) *ExtensionService {
	return &ExtensionService{
		db:          db,
		repomanager: m,
		policy:      NewDatePolicy(clock),
		clock:       clock,
		logger:      logger.With("module", "extensions"),
	}
}

// ValidateExtensionDays accepts 1..common.MaxExtensionDays.
func (s *ExtensionService) ValidateExtensionDays(days int) error {
	if !s.policy.IsValidExtensionDays(days) {
		return fmt.Errorf("%w: extension days must be positive", common.ErrorInvalidExtension)
	}
	if days > common.MaxExtensionDays {
		return fmt.Errorf("%w: extension cannot exceed %d days", common.ErrorInvalidExtension, common.MaxExtensionDays)
	}
	return nil
}

// Extend moves the due date of an owned, eligible task forward by days.
// The day count is checked before any lookup. The eligibility check and
// the write happen under a row lock in one transaction.
func (s *ExtensionService) Extend(ctx context.Context, taskID, username string, days int) (task *models.Task, err error) {
	defer func(start time.Time) { metrics.Observe("extend", start, err) }(time.Now())

	if err := s.ValidateExtensionDays(days); err != nil {
		return nil, err
	}

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
			logOwnershipFailure(ctx, s.logger, "extend", username, taskID, own)
			return err
		}

		if reason := s.policy.Ineligibility(own.Task); reason != models.ReasonNone {
			s.logger.Warn(ctx, "extension refused", "username", username, "task_id", taskID, "reason", string(reason))
			return fmt.Errorf("%w: %s", common.ErrorExtensionNotAllowed, reason)
		}

		if err := own.Task.ExtendDueDate(days, s.clock.Now()); err != nil {
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

	metrics.ObserveExtension(days)
	s.logger.Info(ctx, "task extended", "username", username, "task_id", taskID, "days", days,
		"new_due_date", timex.FormatDate(task.DueDate), "extension_count", task.ExtensionCount)
	return task, nil
}

// Preview computes the due date an extension would produce without
// persisting anything. Ownership is resolved before the day count is
// checked; eligibility is not checked.
func (s *ExtensionService) Preview(ctx context.Context, taskID, username string, days int) (*ExtensionPreview, error) {
	task, err := s.ownedTask(ctx, "preview", taskID, username)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateExtensionDays(days); err != nil {
		return nil, err
	}

	newDue, err := s.policy.CalculateNewDueDate(task.DueDate, days)
	if err != nil {
		return nil, err
	}

	return &ExtensionPreview{
		TaskID:         task.ID,
		CurrentDueDate: task.DueDate,
		NewDueDate:     newDue,
		ExtensionDays:  days,
	}, nil
}

// Info returns the data needed to offer an extension for an owned task.
// Ineligible tasks fail with common.ErrorExtensionNotAllowed.
func (s *ExtensionService) Info(ctx context.Context, taskID, username string) (*ExtensionInfo, error) {
	task, err := s.ownedTask(ctx, "extension_info", taskID, username)
	if err != nil {
		return nil, err
	}

	if reason := s.policy.Ineligibility(task); reason != models.ReasonNone {
		return nil, fmt.Errorf("%w: %s", common.ErrorExtensionNotAllowed, reason)
	}

	return &ExtensionInfo{
		TaskID:           task.ID,
		Title:            task.Title,
		CurrentDueDate:   task.DueDate,
		MaxExtensionDays: common.MaxExtensionDays,
	}, nil
}

// IsEligible reports whether an owned task can be extended today.
func (s *ExtensionService) IsEligible(ctx context.Context, taskID, username string) (bool, error) {
	task, err := s.ownedTask(ctx, "eligibility", taskID, username)
	if err != nil {
		return false, err
	}
	return s.policy.IsEligible(task), nil
}

// EligibleTasks lists the account's open tasks that can be extended today.
func (s *ExtensionService) EligibleTasks(ctx context.Context, username string) ([]*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}

	open, err := s.repomanager.Tasks(s.db).ListByOwnerAndCompleted(ctx, account.ID, false)
	if err != nil {
		return nil, err
	}

	eligible := make([]*models.Task, 0, len(open))
	for _, t := range open {
		if s.policy.IsEligible(t) {
			eligible = append(eligible, t)
		}
	}
	return eligible, nil
}

func (s *ExtensionService) ownedTask(ctx context.Context, op, taskID, username string) (*models.Task, error) {
	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}

	own, err := ResolveOwnership(ctx, s.repomanager.Tasks(s.db), taskID, account.ID, false)
	if err != nil {
		return nil, err
	}
	if err := own.Err(); err != nil {
		logOwnershipFailure(ctx, s.logger, op, username, taskID, own)
		return nil, err
	}
	return own.Task, nil
}
