package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/generator"
	"github.com/deckforge/deckforge/internal/renderer"
	redisrepo "github.com/deckforge/deckforge/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Rename(ctx context.Context, id uuid.UUID, title string) error {
	args := m.Called(ctx, id, title)
	return args.Error(0)
}

func (m *MockSessionRepository) SetVisibility(ctx context.Context, id uuid.UUID, visibility domain.Visibility) error {
	args := m.Called(ctx, id, visibility)
	return args.Error(0)
}

func (m *MockSessionRepository) SetCurrentVersion(ctx context.Context, id uuid.UUID, version int) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *MockSessionRepository) ListAccessible(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDeckRepository mocks the DeckRepository interface
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) GetLive(ctx context.Context, sessionID uuid.UUID) (*domain.SlideDeck, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SlideDeck), args.Error(1)
}

func (m *MockDeckRepository) SaveLive(ctx context.Context, sessionID uuid.UUID, deck *domain.SlideDeck) error {
	args := m.Called(ctx, sessionID, deck)
	return args.Error(0)
}

func (m *MockDeckRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockVersionRepository mocks the VersionRepository interface
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, sessionID uuid.UUID, deck *domain.SlideDeck, chat []domain.ChatMessage, description string) (*domain.Version, error) {
	args := m.Called(ctx, sessionID, deck, chat, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Version), args.Error(1)
}

func (m *MockVersionRepository) List(ctx context.Context, sessionID uuid.UUID) ([]domain.VersionSummary, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.VersionSummary), args.Error(1)
}

func (m *MockVersionRepository) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*domain.Version, error) {
	args := m.Called(ctx, sessionID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Version), args.Error(1)
}

func (m *MockVersionRepository) RestoreSnapshot(ctx context.Context, version *domain.Version) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockMessageRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockJobRepository mocks the JobRepository interface
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) Get(ctx context.Context, requestID string) (*domain.GenerationJob, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationJob), args.Error(1)
}

func (m *MockJobRepository) MarkProcessing(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *MockJobRepository) Complete(ctx context.Context, requestID string, result json.RawMessage) error {
	args := m.Called(ctx, requestID, result)
	return args.Error(0)
}

func (m *MockJobRepository) Fail(ctx context.Context, requestID string, message string) error {
	args := m.Called(ctx, requestID, message)
	return args.Error(0)
}

func (m *MockJobRepository) FailStale(ctx context.Context, message string) (int64, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockPermissionRepository mocks the PermissionRepository interface
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Upsert(ctx context.Context, perm *domain.Permission) error {
	args := m.Called(ctx, perm)
	return args.Error(0)
}

func (m *MockPermissionRepository) Get(ctx context.Context, sessionID uuid.UUID, principalType domain.PrincipalType, principalID uuid.UUID) (*domain.Permission, error) {
	args := m.Called(ctx, sessionID, principalType, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Permission), args.Error(1)
}

func (m *MockPermissionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Permission, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Delete(ctx context.Context, sessionID uuid.UUID, principalType domain.PrincipalType, principalID uuid.UUID) error {
	args := m.Called(ctx, sessionID, principalType, principalID)
	return args.Error(0)
}

func (m *MockPermissionRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockGroupDirectory mocks the GroupDirectory interface
type MockGroupDirectory struct {
	mock.Mock
}

func (m *MockGroupDirectory) IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Bool(0), args.Error(1)
}

// MockProvider mocks the generator Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) AvailableModels() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockProvider) GenerateSlides(ctx context.Context, req generator.Request, model string) (*generator.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generator.Response), args.Error(1)
}

// MockRenderer mocks the Renderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, deck *domain.SlideDeck, format renderer.Format) ([]byte, error) {
	args := m.Called(ctx, deck, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockVerificationStore mocks the VerificationStore interface
type MockVerificationStore struct {
	mock.Mock
}

func (m *MockVerificationStore) Get(ctx context.Context, contentHash string) (*redisrepo.VerificationResult, error) {
	args := m.Called(ctx, contentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redisrepo.VerificationResult), args.Error(1)
}

func (m *MockVerificationStore) Set(ctx context.Context, result *redisrepo.VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
