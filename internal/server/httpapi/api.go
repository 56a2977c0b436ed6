// Package httpapi exposes the task service as a JSON REST API.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

type AccountAPI interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type TaskAPI interface {
	Create(ctx context.Context, username, title, description string, dueDate time.Time) (*models.Task, error)
	List(ctx context.Context, username, sortKey string) ([]*models.Task, error)
	Get(ctx context.Context, taskID, username string) (*models.Task, error)
	Edit(ctx context.Context, taskID, username, title, description string, dueDate time.Time) (*models.Task, error)
	Toggle(ctx context.Context, taskID, username string) (*models.Task, error)
	Delete(ctx context.Context, taskID, username string) error
	Overdue(ctx context.Context, username string) ([]*models.Task, error)
	DueSoon(ctx context.Context, username string) ([]*models.Task, error)
	Completed(ctx context.Context, username string) ([]*models.Task, error)
	Incomplete(ctx context.Context, username string) ([]*models.Task, error)
}

type ExtensionAPI interface {
	Extend(ctx context.Context, taskID, username string, days int) (*models.Task, error)
	Preview(ctx context.Context, taskID, username string, days int) (*services.ExtensionPreview, error)
	Info(ctx context.Context, taskID, username string) (*services.ExtensionInfo, error)
	IsEligible(ctx context.Context, taskID, username string) (bool, error)
	EligibleTasks(ctx context.Context, username string) ([]*models.Task, error)
}

type ExportAPI interface {
	Export(ctx context.Context, username, format string) (*services.ExportResult, error)
}
