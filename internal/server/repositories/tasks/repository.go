package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Repository is the task store. Lookups that find nothing return
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error)
	// LockByIDAndOwner is GetByIDAndOwner holding a row lock until the
	// surrounding transaction ends.
	LockByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, accountID string) error
	DeleteByOwner(ctx context.Context, accountID string) (int64, error)
	ListByOwner(ctx context.Context, accountID string, sort models.SortKey) ([]*models.Task, error)
	ListByOwnerAndCompleted(ctx context.Context, accountID string, completed bool) ([]*models.Task, error)
	ListOverdue(ctx context.Context, accountID string, today time.Time) ([]*models.Task, error)
	ListDueBetween(ctx context.Context, accountID string, from, to time.Time) ([]*models.Task, error)
}
