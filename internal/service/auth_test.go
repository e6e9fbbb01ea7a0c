package service

import (
	"context"
	"testing"
	"time"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("test-secret-at-least-32-chars-long", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("EmailExists", ctx, "new@example.com").Return(false, nil)
		mockUserRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		user, err := svc.Register(ctx, domain.UserCreate{Email: "new@example.com", Password: "hunter2hunter2"})
		assert.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("EmailExists", ctx, "taken@example.com").Return(true, nil)

		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		_, err := svc.Register(ctx, domain.UserCreate{Email: "taken@example.com", Password: "hunter2hunter2"})
		assert.Error(t, err)
		mockUserRepo.AssertNotCalled(t, "Create")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	assert.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		pair, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "correct-horse"})
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Greater(t, pair.ExpiresIn, int64(0))
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		_, err := svc.Login(ctx, domain.UserLogin{Email: "user@example.com", Password: "wrong"})
		assert.Error(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		svc := NewAuthService(mockUserRepo, newTestJWTManager())

		_, err := svc.Login(ctx, domain.UserLogin{Email: "ghost@example.com", Password: "whatever"})
		assert.Error(t, err)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	jwtManager := newTestJWTManager()
	user := &domain.User{ID: uuid.New(), Email: "user@example.com"}

	t.Run("success", func(t *testing.T) {
		_, refreshToken, _, err := jwtManager.GenerateTokenPair(user.ID, user.Email)
		assert.NoError(t, err)

		mockUserRepo := new(MockUserRepository)
		mockUserRepo.On("GetByID", ctx, user.ID).Return(user, nil)

		svc := NewAuthService(mockUserRepo, jwtManager)

		pair, err := svc.Refresh(ctx, refreshToken)
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), jwtManager)

		_, err := svc.Refresh(ctx, "not-a-token")
		assert.Error(t, err)
	})
}
