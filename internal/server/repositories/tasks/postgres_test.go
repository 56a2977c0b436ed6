package tasks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "account_id", "title", "description", "due_date", "completed", "completed_at",
	"created_at", "extension_count", "last_extended_at", "original_due_date"}

var (
	due     = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	created = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func plainRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows(cols).AddRow(id, "acc-1", "Renew passport", nil, due, false, nil, created, 0, nil, nil)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tasks\s*\(account_id,.*\)\s*VALUES\s*\(\$1,.*\$9\)\s*RETURNING\s+id,\s*created_at$`).
		WithArgs("acc-1", "Renew passport", nil, due, false, nil, 0, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("t-1", created))

	task := models.NewTask("acc-1", "Renew passport", "", due)
	got, err := repo.Create(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^INSERT\s+INTO\s+tasks`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), models.NewTask("acc-1", "t", "d", due))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByIDAndOwner_ScansNullableColumns(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	completedAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	lastExt := time.Date(2025, 3, 2, 11, 0, 0, 0, time.UTC)
	original := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2$`).
		WithArgs("t-1", "acc-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t-1", "acc-1", "Renew passport", "bring photos", due, true, completedAt, created, 1, lastExt, original))

	got, err := repo.GetByIDAndOwner(context.Background(), "t-1", "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "bring photos", got.Description)
	assert.Equal(t, due, got.DueDate)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, completedAt, *got.CompletedAt)
	assert.Equal(t, 1, got.ExtensionCount)
	require.NotNil(t, got.LastExtendedAt)
	assert.Equal(t, lastExt, *got.LastExtendedAt)
	require.NotNil(t, got.OriginalDueDate)
	assert.Equal(t, original, *got.OriginalDueDate)
}

func TestGetByIDAndOwner_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT\s+id,`).WithArgs("t-1", "acc-2").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDAndOwner(context.Background(), "t-1", "acc-2")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("t-1").WillReturnRows(plainRow("t-1"))

	got, err := repo.GetByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Empty(t, got.Description)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.OriginalDueDate)
}

func TestLockByIDAndOwner_UsesRowLock(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2\s+FOR\s+UPDATE$`).
		WithArgs("t-1", "acc-1").
		WillReturnRows(plainRow("t-1"))

	got, err := repo.LockByIDAndOwner(context.Background(), "t-1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
}

func TestExistsByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\)$`

	mock.ExpectQuery(q).WithArgs("t-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.ExistsByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(q).WithArgs("t-9").WillReturnError(errors.New("boom"))
	_, err = repo.ExistsByID(context.Background(), "t-9")
	require.ErrorContains(t, err, "db error: boom")
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+tasks\s+SET\s+title\s*=\s*\$3,.*WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2$`

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	task := models.NewTask("acc-1", "t", "", due)
	task.ID = "t-1"
	require.NoError(t, task.ExtendDueDate(2, now))

	mock.ExpectExec(q).
		WithArgs("t-1", "acc-1", "t", nil, due.AddDate(0, 0, 2), false, nil, 1, now, due).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), task))

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Update(context.Background(), task), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `^DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2$`

	mock.ExpectExec(q).WithArgs("t-1", "acc-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "t-1", "acc-1"))

	mock.ExpectExec(q).WithArgs("t-1", "acc-1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "t-1", "acc-1"), common.ErrorNotFound)
}

func TestDeleteByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE\s+FROM\s+tasks\s+WHERE\s+account_id\s*=\s*\$1$`).
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByOwner(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestListByOwner_OrderBySortKey(t *testing.T) {
	tests := []struct {
		sort  models.SortKey
		order string
	}{
		{models.SortCreatedDesc, `ORDER\s+BY\s+created_at\s+DESC,\s*id$`},
		{models.SortCreatedAsc, `ORDER\s+BY\s+created_at\s+ASC,\s*id$`},
		{models.SortDueAsc, `ORDER\s+BY\s+due_date\s+ASC,\s*id$`},
		{models.SortDueDesc, `ORDER\s+BY\s+due_date\s+DESC,\s*id$`},
		{models.SortKey("bogus"), `ORDER\s+BY\s+created_at\s+DESC,\s*id$`},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(`(?s)WHERE\s+account_id\s*=\s*\$1\s+` + tt.order).
				WithArgs("acc-1").
				WillReturnRows(plainRow("t-1").AddRow("t-2", "acc-1", "Second", "x", due, false, nil, created, 0, nil, nil))

			got, err := repo.ListByOwner(context.Background(), "acc-1", tt.sort)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "t-1", got[0].ID)
			assert.Equal(t, "t-2", got[1].ID)
		})
	}
}

func TestListByOwner_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+tasks`).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListByOwner(context.Background(), "acc-1", models.SortCreatedDesc)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByOwner_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+tasks`).WithArgs("acc-1").
		WillReturnRows(plainRow("t-1").RowError(0, errors.New("broken row")))

	_, err := repo.ListByOwner(context.Background(), "acc-1", models.SortCreatedDesc)
	require.ErrorContains(t, err, "broken row")
}

func TestListByOwnerAndCompleted(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)account_id\s*=\s*\$1\s+AND\s+completed\s*=\s*\$2\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("acc-1", false).
		WillReturnRows(plainRow("t-1"))

	got, err := repo.ListByOwnerAndCompleted(context.Background(), "acc-1", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListOverdue(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	today := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)completed\s*=\s*FALSE\s+AND\s+due_date\s*<\s*\$2\s+ORDER\s+BY\s+due_date\s+ASC`).
		WithArgs("acc-1", today).
		WillReturnRows(plainRow("t-1"))

	got, err := repo.ListOverdue(context.Background(), "acc-1", today.Add(13*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListDueBetween(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)

	mock.ExpectQuery(`(?s)due_date\s+BETWEEN\s+\$2\s+AND\s+\$3\s+ORDER\s+BY\s+due_date\s+ASC`).
		WithArgs("acc-1", from, to).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListDueBetween(context.Background(), "acc-1", from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
}
