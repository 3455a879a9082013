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

// ConversationRepository handles conversation state database operations.
type ConversationRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sql.DB, logger *slog.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Load returns the stored state or a fresh NEUTRAL one.
func (r *ConversationRepository) Load(ctx context.Context, conversationID, userID string) (models.ConversationState, error) {
	query := `
		SELECT
			id
		  , user_id
		  , active_operation
		  , accumulated_data
		  , target_task_id
		  , updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	state, err := r.scanState(r.db.QueryRowContext(ctx, query, conversationID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewConversationState(conversationID, userID, r.now()), nil
		}

		return models.ConversationState{}, persistence.NewConversationError("Load", conversationID, userID, err)
	}

	return state, nil
}

// Save upserts a conversation state.
func (r *ConversationRepository) Save(ctx context.Context, state models.ConversationState) error {
	data, err := state.AccumulatedData()
	if err != nil {
		return persistence.NewConversationError("Save", state.ConversationID, state.UserID, err)
	}

	operation := state.ActiveOperation
	if operation == "" {
		operation = models.OperationNeutral
	}

	query := `
		INSERT INTO conversations (id, user_id, active_operation, accumulated_data, target_task_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id, user_id) DO UPDATE SET
			active_operation = EXCLUDED.active_operation
		  , accumulated_data = EXCLUDED.accumulated_data
		  , target_task_id = EXCLUDED.target_task_id
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		state.ConversationID,
		state.UserID,
		string(operation),
		[]byte(data),
		nullInt(state.TargetTaskID),
		state.UpdatedAt,
	)
	if err != nil {
		return persistence.NewConversationError("Save", state.ConversationID, state.UserID, err)
	}

	return nil
}

// Reset clears the active workflow of a stored conversation.
func (r *ConversationRepository) Reset(ctx context.Context, conversationID, userID string) error {
	query := `
		UPDATE conversations
		SET active_operation = 'NEUTRAL', accumulated_data = '{}', target_task_id = NULL, updated_at = $3
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, conversationID, userID, r.now())
	if err != nil {
		return persistence.NewConversationError("Reset", conversationID, userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewConversationError("Reset", conversationID, userID, err)
	}

	if affected == 0 {
		return persistence.NewConversationError("Reset", conversationID, userID, persistence.ErrConversationNotFound)
	}

	return nil
}

// ListStale returns active workflows untouched since before, oldest first.
func (r *ConversationRepository) ListStale(ctx context.Context, before time.Time) ([]models.ConversationState, error) {
	query := `
		SELECT
			id
		  , user_id
		  , active_operation
		  , accumulated_data
		  , target_task_id
		  , updated_at
		FROM conversations
		WHERE active_operation <> 'NEUTRAL' AND updated_at < $1
		ORDER BY updated_at
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale conversations: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	states := make([]models.ConversationState, 0)

	for rows.Next() {
		state, err := r.scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return states, nil
}

func (r *ConversationRepository) scanState(row rowScanner) (models.ConversationState, error) {
	var (
		state     models.ConversationState
		operation string
		data      []byte
		target    sql.NullInt64
	)

	err := row.Scan(&state.ConversationID, &state.UserID, &operation, &data, &target, &state.UpdatedAt)
	if err != nil {
		return models.ConversationState{}, err
	}

	err = state.LoadAccumulatedData(models.Operation(operation), data)
	if err != nil {
		return models.ConversationState{}, err
	}

	if target.Valid {
		id := int(target.Int64)
		state.TargetTaskID = &id
	}

	state.UpdatedAt = state.UpdatedAt.UTC()

	return state, nil
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
