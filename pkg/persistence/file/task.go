package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

type taskFile struct {
	NextID int           `json:"next_id"`
	Tasks  []models.Task `json:"tasks"`
}

// TaskRepository keeps every task in a single tasks.json document.
type TaskRepository struct {
	root string
	now  func() time.Time
	mu   sync.Mutex
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(root string) *TaskRepository {
	return &TaskRepository{root: root, now: utcNow}
}

func (r *TaskRepository) path() string {
	return filepath.Join(r.root, "tasks.json")
}

// ListByUser returns the user's tasks ordered by id.
func (r *TaskRepository) ListByUser(_ context.Context, userID string, filter models.StatusFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.read()
	if err != nil {
		return nil, persistence.NewTaskError("ListByUser", userID, 0, err)
	}

	tasks := make([]models.Task, 0)

	for _, task := range store.Tasks {
		if task.UserID == userID && persistence.MatchesFilter(task, filter) {
			tasks = append(tasks, task)
		}
	}

	slices.SortFunc(tasks, func(a, b models.Task) int { return a.ID - b.ID })

	return tasks, nil
}

// GetByID returns one of the user's tasks.
func (r *TaskRepository) GetByID(_ context.Context, userID string, id int) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.read()
	if err != nil {
		return models.Task{}, persistence.NewTaskError("GetByID", userID, id, err)
	}

	index := store.find(userID, id)
	if index < 0 {
		return models.Task{}, persistence.NewTaskError("GetByID", userID, id, persistence.ErrTaskNotFound)
	}

	return store.Tasks[index], nil
}

// Create assigns the next id and stores task.
func (r *TaskRepository) Create(_ context.Context, task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.read()
	if err != nil {
		return models.Task{}, persistence.NewTaskError("Create", task.UserID, 0, err)
	}

	now := r.now()

	store.NextID++
	task.ID = store.NextID
	task.CreatedAt = now
	task.UpdatedAt = now

	store.Tasks = append(store.Tasks, task)

	err = r.write(store)
	if err != nil {
		return models.Task{}, persistence.NewTaskError("Create", task.UserID, task.ID, err)
	}

	return task, nil
}

// Update replaces a stored task, keeping its creation time.
func (r *TaskRepository) Update(_ context.Context, task models.Task) (models.Task, error) {
	return r.modify("Update", task.UserID, task.ID, func(stored *models.Task) {
		createdAt := stored.CreatedAt
		*stored = task
		stored.CreatedAt = createdAt
	})
}

// SetCompleted flips the completion flag of a stored task.
func (r *TaskRepository) SetCompleted(_ context.Context, userID string, id int, completed bool) (models.Task, error) {
	return r.modify("SetCompleted", userID, id, func(stored *models.Task) {
		stored.Completed = completed
	})
}

// Delete removes a stored task.
func (r *TaskRepository) Delete(_ context.Context, userID string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.read()
	if err != nil {
		return persistence.NewTaskError("Delete", userID, id, err)
	}

	index := store.find(userID, id)
	if index < 0 {
		return persistence.NewTaskError("Delete", userID, id, persistence.ErrTaskNotFound)
	}

	store.Tasks = slices.Delete(store.Tasks, index, index+1)

	err = r.write(store)
	if err != nil {
		return persistence.NewTaskError("Delete", userID, id, err)
	}

	return nil
}

func (r *TaskRepository) modify(op, userID string, id int, apply func(*models.Task)) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.read()
	if err != nil {
		return models.Task{}, persistence.NewTaskError(op, userID, id, err)
	}

	index := store.find(userID, id)
	if index < 0 {
		return models.Task{}, persistence.NewTaskError(op, userID, id, persistence.ErrTaskNotFound)
	}

	apply(&store.Tasks[index])
	store.Tasks[index].UpdatedAt = r.now()

	err = r.write(store)
	if err != nil {
		return models.Task{}, persistence.NewTaskError(op, userID, id, err)
	}

	return store.Tasks[index], nil
}

func (r *TaskRepository) read() (taskFile, error) {
	data, err := os.ReadFile(r.path())
	if err != nil {
		if isNotExist(err) {
			return taskFile{}, nil
		}

		return taskFile{}, fmt.Errorf("failed to read tasks: %w", err)
	}

	var store taskFile

	err = json.Unmarshal(data, &store)
	if err != nil {
		return taskFile{}, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}

	return store, nil
}

func (r *TaskRepository) write(store taskFile) error {
	err := os.MkdirAll(r.root, 0750)
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	err = os.WriteFile(r.path(), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}

	return nil
}

func (f taskFile) find(userID string, id int) int {
	return slices.IndexFunc(f.Tasks, func(task models.Task) bool {
		return task.UserID == userID && task.ID == id
	})
}
