package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/metrics"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"github.com/google/uuid"
)

// ObjectStore keeps export snapshots.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ExportLinkValidity is how long a download link stays usable.
const ExportLinkValidity = 15 * time.Minute

// ParseExportFormat accepts "json" (the default for an empty value) and "csv".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportJSON, nil
	case ExportJSON, ExportCSV:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", common.ErrorValidation, s)
}

type ExportResult struct {
	Key    string
	URL    string
	Format ExportFormat
	Tasks  int
}

// ExportService snapshots an account's tasks into object storage.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	clock       timex.Clock
	logger      logging.Logger
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, clock timex.Clock, logger logging.Logger) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		store:       store,
		clock:       clock,
		logger:      logger.With("module", "export"),
	}
}

type exportRecord struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	DueDate            string     `json:"dueDate"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExtensionCount     int        `json:"extensionCount"`
	OriginalDueDate    string     `json:"originalDueDate,omitempty"`
	TotalExtensionDays int        `json:"totalExtensionDays"`
}

func toExportRecord(t *models.Task) exportRecord {
	r := exportRecord{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		DueDate:            timex.FormatDate(t.DueDate),
		Completed:          t.Completed,
		CompletedAt:        t.CompletedAt,
		CreatedAt:          t.CreatedAt,
		ExtensionCount:     t.ExtensionCount,
		TotalExtensionDays: t.TotalExtensionDays(),
	}
	if t.OriginalDueDate != nil {
		r.OriginalDueDate = timex.FormatDate(*t.OriginalDueDate)
	}
	return r
}

// Export renders all of username's tasks in format, uploads the snapshot
// and returns a presigned download link.
func (s *ExportService) Export(ctx context.Context, username, format string) (res *ExportResult, err error) {
	defer func(start time.Time) { metrics.Observe("export", start, err) }(time.Now())

	f, err := ParseExportFormat(format)
	if err != nil {
		return nil, err
	}

	account, err := resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Tasks(s.db).ListByOwner(ctx, account.ID, models.SortCreatedAsc)
	if err != nil {
		return nil, err
	}

	body, contentType, err := renderExport(list, f)
	if err != nil {
		return nil, fmt.Errorf("error rendering export: %w", err)
	}

	key := s.storageKey(account.ID, f)
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key, ExportLinkValidity)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "tasks exported", "username", username, "key", key, "tasks", len(list))
	return &ExportResult{Key: key, URL: url, Format: f, Tasks: len(list)}, nil
}

func (s *ExportService) storageKey(accountID string, f ExportFormat) string {
	d := s.clock.Now()
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%v.%s", accountID, d.Year(), d.Month(), d.Day(), uuid.New(), f)
}

var csvHeader = []string{"id", "title", "description", "due_date", "completed", "completed_at",
	"created_at", "extension_count", "original_due_date", "total_extension_days"}

func renderExport(list []*models.Task, f ExportFormat) ([]byte, string, error) {
	records := make([]exportRecord, 0, len(list))
	for _, t := range list {
		records = append(records, toExportRecord(t))
	}

	if f == ExportJSON {
		b, err := json.MarshalIndent(records, "", "  ")
		return b, "application/json", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, r := range records {
		completedAt := ""
		if r.CompletedAt != nil {
			completedAt = r.CompletedAt.UTC().Format(time.RFC3339)
		}
		row := []string{r.ID, r.Title, r.Description, r.DueDate, strconv.FormatBool(r.Completed), completedAt,
			r.CreatedAt.UTC().Format(time.RFC3339), strconv.Itoa(r.ExtensionCount), r.OriginalDueDate,
			strconv.Itoa(r.TotalExtensionDays)}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	return buf.Bytes(), "text/csv", w.Error()
}
