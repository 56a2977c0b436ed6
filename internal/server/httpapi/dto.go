package httpapi

import (
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// taskRequest is the body of create and update calls. DueDate is
// "YYYY-MM-DD".
type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

type taskResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	DueDate            string     `json:"dueDate,omitempty"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExtensionCount     int        `json:"extensionCount"`
	LastExtendedAt     *time.Time `json:"lastExtendedAt,omitempty"`
	OriginalDueDate    string     `json:"originalDueDate,omitempty"`
	TotalExtensionDays int        `json:"totalExtensionDays"`
	Overdue            bool       `json:"overdue"`
	DueSoon            bool       `json:"dueSoon"`
}

func toTaskResponse(t *models.Task, today time.Time) taskResponse {
	r := taskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		DueDate:            timex.FormatDate(t.DueDate),
		Completed:          t.Completed,
		CompletedAt:        t.CompletedAt,
		CreatedAt:          t.CreatedAt,
		ExtensionCount:     t.ExtensionCount,
		LastExtendedAt:     t.LastExtendedAt,
		TotalExtensionDays: t.TotalExtensionDays(),
		Overdue:            t.IsOverdue(today),
		DueSoon:            t.IsDueSoon(today),
	}
	if t.OriginalDueDate != nil {
		r.OriginalDueDate = timex.FormatDate(*t.OriginalDueDate)
	}
	return r
}

func toTaskResponses(list []*models.Task, today time.Time) []taskResponse {
	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskResponse(t, today))
	}
	return out
}

// extendRequest carries the path id again as TodoID; both must match.
type extendRequest struct {
	TodoID        string `json:"todoId"`
	ExtensionDays *int   `json:"extensionDays"`
}

type eligibilityResponse struct {
	TodoID   string `json:"todoId"`
	Eligible bool   `json:"eligible"`
}

type extendResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	TodoID             string `json:"todoId,omitempty"`
	NewDueDate         string `json:"newDueDate,omitempty"`
	OriginalDueDate    string `json:"originalDueDate,omitempty"`
	TotalExtensionDays *int   `json:"totalExtensionDays,omitempty"`
}

type extensionInfoResponse struct {
	TodoID           string `json:"todoId"`
	Title            string `json:"title"`
	CurrentDueDate   string `json:"currentDueDate"`
	MaxExtensionDays int    `json:"maxExtensionDays"`
}

type previewResponse struct {
	TodoID         string `json:"todoId"`
	CurrentDueDate string `json:"currentDueDate"`
	NewDueDate     string `json:"newDueDate"`
	ExtensionDays  int    `json:"extensionDays"`
}

type exportResponse struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Format string `json:"format"`
	Tasks  int    `json:"tasks"`
}

type errorResponse struct {
	Error string `json:"error"`
}
