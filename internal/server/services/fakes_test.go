package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// warnLogger keeps Warn calls so tests can check what was reported.
type warnLogger struct {
	nopLogger
	mu    sync.Mutex
	warns []string
	args  [][]any
}

func (l *warnLogger) Warn(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
	l.args = append(l.args, args)
}

func (l *warnLogger) With(...any) logging.Logger { return l }

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- accounts ---

type fakeAccountsRepo struct {
	mu        sync.Mutex
	byName    map[string]*models.Account
	lookups   int
	createErr error
	getErr    error
	deleteErr error
}

func newFakeAccountsRepo(names ...string) *fakeAccountsRepo {
	r := &fakeAccountsRepo{byName: map[string]*models.Account{}}
	for _, n := range names {
		r.byName[n] = &models.Account{ID: "acc-" + n, Username: n, PasswordHash: "hash:pw-" + n}
	}
	return r
}

func (r *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byName[a.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	a.ID = "acc-" + a.Username
	a.CreatedAt = time.Now()
	cp := *a
	r.byName[a.Username] = &cp
	return a, nil
}

func (r *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.getErr != nil {
		return nil, r.getErr
	}
	a, ok := r.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for name, a := range r.byName {
		if a.ID == id {
			delete(r.byName, name)
			return nil
		}
	}
	return common.ErrorNotFound
}

// --- tasks ---

type fakeTasksRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Task
	seq       int
	calls     map[string]int
	getErr    error
	existsErr error
	updateErr error
	listErr   error
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{byID: map[string]*models.Task{}, calls: map[string]int{}}
}

func cloneTask(t *models.Task) *models.Task {
	cp := *t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	if t.LastExtendedAt != nil {
		v := *t.LastExtendedAt
		cp.LastExtendedAt = &v
	}
	if t.OriginalDueDate != nil {
		v := *t.OriginalDueDate
		cp.OriginalDueDate = &v
	}
	return &cp
}

// seed stores a task directly and returns its id.
func (r *fakeTasksRepo) seed(t *models.Task) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Minute)
	}
	r.byID[t.ID] = cloneTask(t)
	return t.ID
}

func (r *fakeTasksRepo) stored(id string) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	return cloneTask(t)
}

func (r *fakeTasksRepo) lookupCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls["GetByID"] + r.calls["GetByIDAndOwner"] + r.calls["LockByIDAndOwner"] + r.calls["ExistsByID"]
}

func (r *fakeTasksRepo) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *fakeTasksRepo) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	r.calls["Create"]++
	r.mu.Unlock()
	t.CreatedAt = time.Time{}
	r.seed(t)
	return t, nil
}

func (r *fakeTasksRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["GetByID"]++
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneTask(t), nil
}

func (r *fakeTasksRepo) getOwned(name, id, accountID string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.byID[id]
	if !ok || t.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	return cloneTask(t), nil
}

func (r *fakeTasksRepo) GetByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error) {
	return r.getOwned("GetByIDAndOwner", id, accountID)
}

func (r *fakeTasksRepo) LockByIDAndOwner(ctx context.Context, id, accountID string) (*models.Task, error) {
	return r.getOwned("LockByIDAndOwner", id, accountID)
}

func (r *fakeTasksRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["ExistsByID"]++
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.byID[id]
	return ok, nil
}

func (r *fakeTasksRepo) Update(ctx context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Update"]++
	if r.updateErr != nil {
		return r.updateErr
	}
	old, ok := r.byID[t.ID]
	if !ok || old.AccountID != t.AccountID {
		return common.ErrorNotFound
	}
	r.byID[t.ID] = cloneTask(t)
	return nil
}

func (r *fakeTasksRepo) Delete(ctx context.Context, id, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Delete"]++
	t, ok := r.byID[id]
	if !ok || t.AccountID != accountID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeTasksRepo) DeleteByOwner(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.byID {
		if t.AccountID == accountID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTasksRepo) filter(accountID string, keep func(*models.Task) bool) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Task, 0)
	for _, t := range r.byID {
		if t.AccountID == accountID && keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTasksRepo) ListByOwner(ctx context.Context, accountID string, key models.SortKey) ([]*models.Task, error) {
	out, err := r.filter(accountID, func(*models.Task) bool { return true })
	if err != nil {
		return nil, err
	}
	less := map[models.SortKey]func(a, b *models.Task) bool{
		models.SortCreatedDesc: func(a, b *models.Task) bool { return a.CreatedAt.After(b.CreatedAt) },
		models.SortCreatedAsc:  func(a, b *models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) },
		models.SortDueAsc:      func(a, b *models.Task) bool { return a.DueDate.Before(b.DueDate) },
		models.SortDueDesc:     func(a, b *models.Task) bool { return a.DueDate.After(b.DueDate) },
	}[key]
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func (r *fakeTasksRepo) ListByOwnerAndCompleted(ctx context.Context, accountID string, completed bool) ([]*models.Task, error) {
	return r.filter(accountID, func(t *models.Task) bool { return t.Completed == completed })
}

func (r *fakeTasksRepo) ListOverdue(ctx context.Context, accountID string, today time.Time) ([]*models.Task, error) {
	out, err := r.filter(accountID, func(t *models.Task) bool { return !t.Completed && t.DueDate.Before(today) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, err
}

func (r *fakeTasksRepo) ListDueBetween(ctx context.Context, accountID string, from, to time.Time) ([]*models.Task, error) {
	out, err := r.filter(accountID, func(t *models.Task) bool {
		return !t.Completed && !t.DueDate.Before(from) && !t.DueDate.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, err
}

// --- manager ---

type fakeRepoManager struct {
	a *fakeAccountsRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository     { return m.a }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository           { return m.t }

// newTxDB returns an in-memory database used only as a transaction host.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// today is the fixed calendar date every service test runs on.
var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

var testNow = today.Add(9*time.Hour + 30*time.Minute)

func testClock() timex.Clock { return timex.FixedClock{T: testNow} }

func dueIn(days int) time.Time { return timex.AddDays(today, days) }

type plainVerifier struct{}

func (plainVerifier) Hash(password string) (string, error) { return "hash:" + password, nil }
func (plainVerifier) Verify(password, hash string) bool    { return hash == "hash:"+password }
