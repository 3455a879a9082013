package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

// ConversationRepository stores each state as
// conversations/<user id>/<conversation id>.json.
type ConversationRepository struct {
	root string
	now  func() time.Time
	mu   sync.Mutex
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(root string) *ConversationRepository {
	return &ConversationRepository{root: root, now: utcNow}
}

func (r *ConversationRepository) dir() string {
	return filepath.Join(r.root, "conversations")
}

func (r *ConversationRepository) path(conversationID, userID string) (string, error) {
	if err := validateKey("conversation ID", conversationID); err != nil {
		return "", err
	}

	if err := validateKey("user ID", userID); err != nil {
		return "", err
	}

	return filepath.Join(r.dir(), userID, conversationID+".json"), nil
}

// Load reads a conversation state from the file system.
func (r *ConversationRepository) Load(_ context.Context, conversationID, userID string) (models.ConversationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filePath, err := r.path(conversationID, userID)
	if err != nil {
		return models.ConversationState{}, persistence.NewConversationError("Load", conversationID, userID, err)
	}

	state, err := readState(filePath)
	if err != nil {
		if isNotExist(err) {
			return models.NewConversationState(conversationID, userID, r.now()), nil
		}

		return models.ConversationState{}, persistence.NewConversationError("Load", conversationID, userID, err)
	}

	return state, nil
}

// Save writes a conversation state to the file system.
func (r *ConversationRepository) Save(_ context.Context, state models.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(state)
}

// Reset stores a NEUTRAL state in place of an existing conversation.
func (r *ConversationRepository) Reset(_ context.Context, conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filePath, err := r.path(conversationID, userID)
	if err != nil {
		return persistence.NewConversationError("Reset", conversationID, userID, err)
	}

	if _, err := os.Stat(filePath); err != nil {
		if isNotExist(err) {
			return persistence.NewConversationError("Reset", conversationID, userID, persistence.ErrConversationNotFound)
		}

		return persistence.NewConversationError("Reset", conversationID, userID, err)
	}

	return r.write(models.NewConversationState(conversationID, userID, r.now()))
}

// ListStale scans every stored conversation for workflows untouched since before.
func (r *ConversationRepository) ListStale(_ context.Context, before time.Time) ([]models.ConversationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := os.ReadDir(r.dir())
	if err != nil {
		if isNotExist(err) {
			return []models.ConversationState{}, nil
		}

		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	stale := make([]models.ConversationState, 0)

	for _, user := range users {
		if !user.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(r.dir(), user.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read conversations of user %s: %w", user.Name(), err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}

			state, err := readState(filepath.Join(r.dir(), user.Name(), entry.Name()))
			if err != nil {
				// Skip invalid files
				continue
			}

			if !state.IsNeutral() && state.UpdatedAt.Before(before) {
				stale = append(stale, state)
			}
		}
	}

	slices.SortFunc(stale, func(a, b models.ConversationState) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})

	return stale, nil
}

func (r *ConversationRepository) write(state models.ConversationState) error {
	filePath, err := r.path(state.ConversationID, state.UserID)
	if err != nil {
		return persistence.NewConversationError("Save", state.ConversationID, state.UserID, err)
	}

	err = os.MkdirAll(filepath.Dir(filePath), 0750)
	if err != nil {
		return fmt.Errorf("failed to create conversations directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return persistence.NewConversationError("Save", state.ConversationID, state.UserID, err)
	}

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return persistence.NewConversationError("Save", state.ConversationID, state.UserID, err)
	}

	return nil
}

func readState(filePath string) (models.ConversationState, error) {
	data, err := os.ReadFile(filePath) // #nosec G304 -- path elements are validated
	if err != nil {
		return models.ConversationState{}, err
	}

	var state models.ConversationState

	err = json.Unmarshal(data, &state)
	if err != nil {
		return models.ConversationState{}, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}

	return state, nil
}
