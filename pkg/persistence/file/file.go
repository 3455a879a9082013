// Package file provides file-based persistence implementation for conversations and tasks.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root             string
	conversationRepo *ConversationRepository
	taskRepo         *TaskRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:             cleanRoot,
		conversationRepo: NewConversationRepository(cleanRoot),
		taskRepo:         NewTaskRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Conversations returns the conversation repository for file persistence.
func (fp *Persistence) Conversations() persistence.ConversationRepository {
	return fp.conversationRepo
}

// Tasks returns the task repository for file persistence.
func (fp *Persistence) Tasks() persistence.TaskRepository {
	return fp.taskRepo
}

// validateKey validates that an identifier is safe to use as a path element.
func validateKey(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s cannot be empty", persistence.ErrInvalidIdentifier, kind)
	}

	// Check for path traversal attempts
	if strings.Contains(value, "..") || strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%w: %s contains invalid characters", persistence.ErrInvalidIdentifier, kind)
	}

	return nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
