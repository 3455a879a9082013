package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

// MockConversationRepository is a mock implementation of persistence.ConversationRepository.
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Load(ctx context.Context, conversationID, userID string) (models.ConversationState, error) {
	args := m.Called(ctx, conversationID, userID)

	return args.Get(0).(models.ConversationState), args.Error(1)
}

func (m *MockConversationRepository) Save(ctx context.Context, state models.ConversationState) error {
	args := m.Called(ctx, state)

	return args.Error(0)
}

func (m *MockConversationRepository) Reset(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)

	return args.Error(0)
}

func (m *MockConversationRepository) ListStale(ctx context.Context, before time.Time) ([]models.ConversationState, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ConversationState), args.Error(1)
}

// MockTaskRepository is a mock implementation of persistence.TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) ListByUser(ctx context.Context, userID string, filter models.StatusFilter) ([]models.Task, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, userID string, id int) (models.Task, error) {
	args := m.Called(ctx, userID, id)

	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	args := m.Called(ctx, task)

	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task models.Task) (models.Task, error) {
	args := m.Called(ctx, task)

	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID string, id int) error {
	args := m.Called(ctx, userID, id)

	return args.Error(0)
}

func (m *MockTaskRepository) SetCompleted(ctx context.Context, userID string, id int, completed bool) (models.Task, error) {
	args := m.Called(ctx, userID, id, completed)

	return args.Get(0).(models.Task), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock

	conversations *MockConversationRepository
	tasks         *MockTaskRepository
}

// NewMockPersistence creates a new mock persistence instance.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		conversations: &MockConversationRepository{},
		tasks:         &MockTaskRepository{},
	}
}

// GetMockConversationRepository returns the mock conversation repository for setting expectations.
func (m *MockPersistence) GetMockConversationRepository() *MockConversationRepository {
	return m.conversations
}

// GetMockTaskRepository returns the mock task repository for setting expectations.
func (m *MockPersistence) GetMockTaskRepository() *MockTaskRepository {
	return m.tasks
}

func (m *MockPersistence) Conversations() persistence.ConversationRepository {
	return m.conversations
}

func (m *MockPersistence) Tasks() persistence.TaskRepository {
	return m.tasks
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
