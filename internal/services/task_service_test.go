package services

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
)

var (
	alice = auth.Principal{ID: "alice", Role: models.RoleUser}
	bob   = auth.Principal{ID: "bob", Role: models.RoleUser}
	admin = auth.Principal{ID: "root", Role: models.RoleAdmin}
)

const selectTaskByID = `SELECT id, title, description, completed, due_date, priority, owner_id, created_at, updated_at FROM tasks WHERE id = ?`

func setupTaskMock(t *testing.T) (*TaskService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTaskService(db), mock
}

func taskRows(id, ownerID string, completed bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "description", "completed", "due_date", "priority", "owner_id", "created_at", "updated_at"}).
		AddRow(id, "Buy milk", "Two liters", completed, nil, "medium", ownerID, now, now)
}

func expectFetch(mock sqlmock.Sqlmock, id, ownerID string, completed bool) {
	mock.ExpectQuery(regexp.QuoteMeta(selectTaskByID)).
		WithArgs(id).
		WillReturnRows(taskRows(id, ownerID, completed))
}

func TestCreateForcesOwner(t *testing.T) {
	svc, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks(id, title, description, completed, due_date, priority, owner_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)).
		WithArgs(sqlmock.AnyArg(), "Buy milk", "Two liters", false, nil, "medium", "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err := svc.Create(context.Background(), alice, CreateTaskInput{
		Title:       "Buy milk",
		Description: "Two liters",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", task.OwnerID)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupTaskMock(t)
	past := time.Now().Add(-time.Hour)
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name string
		in   CreateTaskInput
	}{
		{"missing title", CreateTaskInput{Description: "d"}},
		{"title too long", CreateTaskInput{Title: string(long), Description: "d"}},
		{"missing description", CreateTaskInput{Title: "t"}},
		{"past due date", CreateTaskInput{Title: "t", Description: "d", DueDate: &past}},
		{"unknown priority", CreateTaskInput{Title: "t", Description: "d", Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tt.in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestUpdateByOwner(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET title = ?, description = ?, completed = ?, due_date = ?, priority = ?, updated_at = ? WHERE id = ?`)).
		WithArgs("Buy oat milk", "Two liters", true, nil, "high", sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "Buy oat milk"
	completed := true
	priority := "high"
	task, err := svc.Update(context.Background(), alice, "task-1", UpdateTaskInput{
		Title:     &title,
		Completed: &completed,
		Priority:  &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.True(t, task.Completed)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, "alice", task.OwnerID, "owner must survive every update")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByStrangerForbidden(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)

	title := "hijacked"
	_, err := svc.Update(context.Background(), bob, "task-1", UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, models.ErrForbidden)
	// No UPDATE may be issued after a denial.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByAdmin(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WithArgs("reviewed", "Two liters", false, nil, "medium", sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "reviewed"
	task, err := svc.Update(context.Background(), admin, "task-1", UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "alice", task.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNotFound(t *testing.T) {
	svc, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectTaskByID)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	title := "anything"
	_, err := svc.Update(context.Background(), alice, "ghost", UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestToggleComplete(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`)).
		WithArgs(true, sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err := svc.ToggleComplete(context.Background(), alice, "task-1")
	require.NoError(t, err)
	assert.True(t, task.Completed)

	expectFetch(mock, "task-1", "alice", true)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`)).
		WithArgs(false, sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	task, err = svc.ToggleComplete(context.Background(), alice, "task-1")
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleByStrangerForbidden(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)

	_, err := svc.ToggleComplete(context.Background(), bob, "task-1")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = ?`)).
		WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), alice, "task-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByStrangerForbidden(t *testing.T) {
	svc, mock := setupTaskMock(t)

	expectFetch(mock, "task-1", "alice", false)

	err := svc.Delete(context.Background(), bob, "task-1")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMineFiltersByOwner(t *testing.T) {
	svc, mock := setupTaskMock(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "completed", "due_date", "priority", "owner_id", "created_at", "updated_at"}).
		AddRow("task-2", "Newer", "d", false, nil, "low", "alice", now, now).
		AddRow("task-1", "Older", "d", true, nil, "high", "alice", now.Add(-time.Hour), now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE owner_id = ? ORDER BY created_at DESC`)).
		WithArgs("alice").
		WillReturnRows(rows)

	tasks, err := svc.ListMine(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "alice", task.OwnerID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllRequiresAdmin(t *testing.T) {
	svc, mock := setupTaskMock(t)

	_, err := svc.ListAll(context.Background(), alice)
	assert.ErrorIs(t, err, models.ErrForbidden)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks ORDER BY created_at DESC`)).
		WillReturnRows(taskRows("task-1", "alice", false))

	tasks, err := svc.ListAll(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueSoon(t *testing.T) {
	svc, mock := setupTaskMock(t)

	due := time.Now().Add(2 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "completed", "due_date", "priority", "owner_id", "created_at", "updated_at"}).
		AddRow("task-1", "Soon", "d", false, due, "medium", "alice", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE completed = 0 AND due_date IS NOT NULL AND due_date > ? AND due_date <= ? ORDER BY due_date`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	tasks, err := svc.DueSoon(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].DueDate)
	assert.WithinDuration(t, due, *tasks[0].DueDate, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
