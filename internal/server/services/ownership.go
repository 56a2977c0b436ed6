package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// OwnershipStatus is the outcome of resolving a task for an account.
type OwnershipStatus int

const (
	NotFound OwnershipStatus = iota
	Owned
	NotOwned
)

func (s OwnershipStatus) String() string {
	switch s {
	case Owned:
		return "owned"
	case NotOwned:
		return "not_owned"
	default:
		return "not_found"
	}
}

// Ownership carries the resolved task. Task is set only when Status is
// Owned; a non-owner never receives task content.
type Ownership struct {
	Status OwnershipStatus
	Task   *models.Task
}

// Err translates the status into the service error vocabulary.
func (o Ownership) Err() error {
	switch o.Status {
	case Owned:
		return nil
	case NotOwned:
		return common.ErrorUnauthorized
	default:
		return common.ErrorTaskNotFound
	}
}

// ResolveOwnership looks the task up scoped to accountID and, if that
// fails, checks whether the id exists under any owner. With lock set the
// owned row stays locked until the enclosing transaction ends. Ids that
// are not UUIDs resolve to NotFound without touching the store.
func ResolveOwnership(ctx context.Context, repo tasks.Repository, taskID, accountID string, lock bool) (Ownership, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return Ownership{Status: NotFound}, nil
	}

	get := repo.GetByIDAndOwner
	if lock {
		get = repo.LockByIDAndOwner
	}

	task, err := get(ctx, taskID, accountID)
	if err == nil {
		return Ownership{Status: Owned, Task: task}, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return Ownership{}, err
	}

	exists, err := repo.ExistsByID(ctx, taskID)
	if err != nil {
		return Ownership{}, err
	}
	if exists {
		return Ownership{Status: NotOwned}, nil
	}
	return Ownership{Status: NotFound}, nil
}

// resolveAccount maps a missing username to common.ErrorAccountNotFound.
func resolveAccount(ctx context.Context, repo accounts.Repository, username string) (*models.Account, error) {
	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func logOwnershipFailure(ctx context.Context, logger logging.Logger, op, username, taskID string, own Ownership) {
	if own.Status == NotOwned {
		logger.Warn(ctx, "access to foreign task denied", "op", op, "username", username, "task_id", taskID)
	}
}
