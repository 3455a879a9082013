package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

const taskColumns = `
			id
		  , user_id
		  , title
		  , description
		  , priority
		  , completed
		  , due_date
		  , created_at
		  , updated_at`

// TaskRepository handles task database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListByUser returns the user's tasks ordered by id.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string, filter models.StatusFilter) ([]models.Task, error) {
	query := `SELECT` + taskColumns + `
		FROM tasks
		WHERE user_id = $1`

	args := []any{userID}

	switch filter {
	case models.StatusPending:
		query += ` AND completed = false`
	case models.StatusCompleted:
		query += ` AND completed = true`
	}

	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewTaskError("ListByUser", userID, 0, err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	tasks := make([]models.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetByID returns one of the user's tasks.
func (r *TaskRepository) GetByID(ctx context.Context, userID string, id int) (models.Task, error) {
	query := `SELECT` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return models.Task{}, persistence.NewTaskError("GetByID", userID, id, notFound(err))
	}

	return task, nil
}

// Create inserts task and returns it with its assigned id.
func (r *TaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	now := r.now()

	query := `
		INSERT INTO tasks (user_id, title, description, priority, completed, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING` + taskColumns

	created, err := scanTask(r.db.QueryRowContext(ctx, query,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Priority),
		task.Completed,
		nullTime(task.DueDate),
		now,
	))
	if err != nil {
		return models.Task{}, persistence.NewTaskError("Create", task.UserID, 0, err)
	}

	return created, nil
}

// Update overwrites the editable fields of a stored task.
func (r *TaskRepository) Update(ctx context.Context, task models.Task) (models.Task, error) {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, priority = $5, completed = $6, due_date = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
		RETURNING` + taskColumns

	updated, err := scanTask(r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Priority),
		task.Completed,
		nullTime(task.DueDate),
		r.now(),
	))
	if err != nil {
		return models.Task{}, persistence.NewTaskError("Update", task.UserID, task.ID, notFound(err))
	}

	return updated, nil
}

// SetCompleted flips the completion flag of a stored task.
func (r *TaskRepository) SetCompleted(ctx context.Context, userID string, id int, completed bool) (models.Task, error) {
	query := `
		UPDATE tasks
		SET completed = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING` + taskColumns

	updated, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID, completed, r.now()))
	if err != nil {
		return models.Task{}, persistence.NewTaskError("SetCompleted", userID, id, notFound(err))
	}

	return updated, nil
}

// Delete removes a stored task.
func (r *TaskRepository) Delete(ctx context.Context, userID string, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return persistence.NewTaskError("Delete", userID, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewTaskError("Delete", userID, id, err)
	}

	if affected == 0 {
		return persistence.NewTaskError("Delete", userID, id, persistence.ErrTaskNotFound)
	}

	return nil
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task     models.Task
		priority string
		due      sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&priority,
		&task.Completed,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	task.Priority = models.Priority(priority)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	if due.Valid {
		dueDate := due.Time.UTC()
		task.DueDate = &dueDate
	}

	return task, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *value, Valid: true}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrTaskNotFound
	}

	return err
}
