package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
)

// CreateTaskInput carries the client-settable fields for a new task.
// The owner is never part of it; it is forced to the authenticated
// principal server-side.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
}

// UpdateTaskInput carries the allow-listed fields of a partial update.
// Nil means "leave unchanged". Owner and id are deliberately absent so
// they cannot be reached through an update.
type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority"`
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	Create(ctx context.Context, p auth.Principal, in CreateTaskInput) (models.Task, error)
	Get(ctx context.Context, p auth.Principal, id string) (models.Task, error)
	ListMine(ctx context.Context, p auth.Principal) ([]models.Task, error)
	ListAll(ctx context.Context, p auth.Principal) ([]models.Task, error)
	Update(ctx context.Context, p auth.Principal, id string, in UpdateTaskInput) (models.Task, error)
	ToggleComplete(ctx context.Context, p auth.Principal, id string) (models.Task, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
}

// TaskService provides business logic for tasks. Every read or
// mutation of an existing task consults auth.CanAccess with the task's
// owner before touching the store, so authorization always completes
// before the first write.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = "id, title, description, completed, due_date, priority, owner_id, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	var due sql.NullTime
	var priority string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed,
		&due, &priority, &task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if due.Valid {
		t := due.Time
		task.DueDate = &t
	}
	if task.Priority, err = models.ParsePriority(priority); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskService) getTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, models.ErrTaskNotFound
	}
	return task, err
}

func (s *TaskService) listTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Create inserts a new task owned by the principal. Client-supplied
// owner fields never reach this path.
func (s *TaskService) Create(ctx context.Context, p auth.Principal, in CreateTaskInput) (models.Task, error) {
	if err := validateTitle(in.Title); err != nil {
		return models.Task{}, err
	}
	if err := validateDescription(in.Description); err != nil {
		return models.Task{}, err
	}
	if err := validateDueDate(in.DueDate); err != nil {
		return models.Task{}, err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	now := time.Now()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		OwnerID:     p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tasks(id, title, description, completed, due_date, priority, owner_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, task.Completed, nullableTime(task.DueDate),
		string(task.Priority), task.OwnerID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Get retrieves a single task, gated by the ownership policy.
func (s *TaskService) Get(ctx context.Context, p auth.Principal, id string) (models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !auth.CanAccess(p, task.OwnerID) {
		return models.Task{}, models.ErrForbidden
	}
	return task, nil
}

// ListMine returns the principal's own tasks, newest first.
func (s *TaskService) ListMine(ctx context.Context, p auth.Principal) ([]models.Task, error) {
	return s.listTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE owner_id = ? ORDER BY created_at DESC", p.ID)
}

// ListAll returns every task in the system. Admin only; a non-admin
// gets a denial, not a filtered view.
func (s *TaskService) ListAll(ctx context.Context, p auth.Principal) ([]models.Task, error) {
	if !p.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return s.listTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC")
}

// Update applies the allow-listed fields of in to the task, after the
// ownership check passes.
func (s *TaskService) Update(ctx context.Context, p auth.Principal, id string, in UpdateTaskInput) (models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !auth.CanAccess(p, task.OwnerID) {
		return models.Task{}, models.ErrForbidden
	}

	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return models.Task{}, err
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return models.Task{}, err
		}
		task.Description = *in.Description
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	if in.DueDate != nil {
		if err := validateDueDate(in.DueDate); err != nil {
			return models.Task{}, err
		}
		task.DueDate = in.DueDate
	}
	if in.Priority != nil {
		priority, err := models.ParsePriority(*in.Priority)
		if err != nil {
			return models.Task{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		task.Priority = priority
	}
	task.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, completed = ?, due_date = ?, priority = ?, updated_at = ? WHERE id = ?",
		task.Title, task.Description, task.Completed, nullableTime(task.DueDate),
		string(task.Priority), task.UpdatedAt, task.ID)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ToggleComplete flips the task's completed flag. Concurrent toggles
// are last-writer-wins at the store level.
func (s *TaskService) ToggleComplete(ctx context.Context, p auth.Principal, id string) (models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !auth.CanAccess(p, task.OwnerID) {
		return models.Task{}, models.ErrForbidden
	}

	task.Completed = !task.Completed
	task.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?",
		task.Completed, task.UpdatedAt, task.ID)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Delete removes the task permanently.
func (s *TaskService) Delete(ctx context.Context, p auth.Principal, id string) error {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanAccess(p, task.OwnerID) {
		return models.ErrForbidden
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", task.ID)
	return err
}

// DueSoon returns incomplete tasks whose due date falls within the next
// `within`. Used by the reminder sweeper; not exposed over HTTP.
func (s *TaskService) DueSoon(ctx context.Context, within time.Duration) ([]models.Task, error) {
	now := time.Now()
	return s.listTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE completed = 0 AND due_date IS NOT NULL AND due_date > ? AND due_date <= ? ORDER BY due_date",
		now, now.Add(within))
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if len(title) > 100 {
		return fmt.Errorf("%w: title cannot be more than 100 characters", models.ErrValidation)
	}
	return nil
}

func validateDescription(description string) error {
	if description == "" {
		return fmt.Errorf("%w: description is required", models.ErrValidation)
	}
	if len(description) > 500 {
		return fmt.Errorf("%w: description cannot be more than 500 characters", models.ErrValidation)
	}
	return nil
}

func validateDueDate(due *time.Time) error {
	if due != nil && due.Before(time.Now()) {
		return fmt.Errorf("%w: due date must be in the future", models.ErrValidation)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
