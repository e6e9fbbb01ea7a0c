package service

import (
	"context"
	"testing"

	"github.com/deckforge/deckforge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPermissionResolver_Owner(t *testing.T) {
	ownerID := uuid.New()
	sess := &domain.Session{ID: uuid.New(), OwnerID: ownerID, Visibility: domain.VisibilityPrivate}

	// Owner access resolves before any repo call, so an empty mock suffices.
	resolver := NewPermissionResolver(new(MockPermissionRepository), nil, nil)

	canRead, err := resolver.CanRead(context.Background(), ownerID, sess)
	assert.NoError(t, err)
	assert.True(t, canRead)

	canEdit, err := resolver.CanEdit(context.Background(), ownerID, sess)
	assert.NoError(t, err)
	assert.True(t, canEdit)
}

func TestPermissionResolver_UserGrant(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sess := &domain.Session{ID: uuid.New(), OwnerID: uuid.New(), Visibility: domain.VisibilityPrivate}

	t.Run("read grant allows read but not edit", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).
			Return(&domain.Permission{Permission: domain.PermissionRead}, nil)

		resolver := NewPermissionResolver(mockPermRepo, nil, nil)

		canRead, err := resolver.CanRead(ctx, userID, sess)
		assert.NoError(t, err)
		assert.True(t, canRead)

		canEdit, err := resolver.CanEdit(ctx, userID, sess)
		assert.NoError(t, err)
		assert.False(t, canEdit)
	})

	t.Run("edit grant implies read", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).
			Return(&domain.Permission{Permission: domain.PermissionEdit}, nil)

		resolver := NewPermissionResolver(mockPermRepo, nil, nil)

		canRead, err := resolver.CanRead(ctx, userID, sess)
		assert.NoError(t, err)
		assert.True(t, canRead)

		canEdit, err := resolver.CanEdit(ctx, userID, sess)
		assert.NoError(t, err)
		assert.True(t, canEdit)
	})

	t.Run("no grant on private session denies", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).Return(nil, nil)

		resolver := NewPermissionResolver(mockPermRepo, nil, nil)

		canRead, err := resolver.CanRead(ctx, userID, sess)
		assert.NoError(t, err)
		assert.False(t, canRead)
	})
}

func TestPermissionResolver_GroupGrant(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	groupID := uuid.New()
	sess := &domain.Session{ID: uuid.New(), OwnerID: uuid.New(), Visibility: domain.VisibilityPrivate}

	t.Run("member of granted group", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).Return(nil, nil)
		mockPermRepo.On("ListBySession", ctx, sess.ID).Return([]domain.Permission{
			{PrincipalType: domain.PrincipalGroup, PrincipalID: groupID, Permission: domain.PermissionEdit},
		}, nil)

		mockDirectory := new(MockGroupDirectory)
		mockDirectory.On("IsMember", ctx, userID, groupID).Return(true, nil)

		resolver := NewPermissionResolver(mockPermRepo, mockDirectory, nil)

		canEdit, err := resolver.CanEdit(ctx, userID, sess)
		assert.NoError(t, err)
		assert.True(t, canEdit)
	})

	t.Run("non-member denied", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).Return(nil, nil)
		mockPermRepo.On("ListBySession", ctx, sess.ID).Return([]domain.Permission{
			{PrincipalType: domain.PrincipalGroup, PrincipalID: groupID, Permission: domain.PermissionEdit},
		}, nil)

		mockDirectory := new(MockGroupDirectory)
		mockDirectory.On("IsMember", ctx, userID, groupID).Return(false, nil)

		resolver := NewPermissionResolver(mockPermRepo, mockDirectory, nil)

		canEdit, err := resolver.CanEdit(ctx, userID, sess)
		assert.NoError(t, err)
		assert.False(t, canEdit)
	})

	t.Run("read-level group grant does not allow edit", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).Return(nil, nil)
		mockPermRepo.On("ListBySession", ctx, sess.ID).Return([]domain.Permission{
			{PrincipalType: domain.PrincipalGroup, PrincipalID: groupID, Permission: domain.PermissionRead},
		}, nil)

		mockDirectory := new(MockGroupDirectory)

		resolver := NewPermissionResolver(mockPermRepo, mockDirectory, nil)

		canEdit, err := resolver.CanEdit(ctx, userID, sess)
		assert.NoError(t, err)
		assert.False(t, canEdit)
		// Read-level grants are filtered before the directory is consulted.
		mockDirectory.AssertNotCalled(t, "IsMember")
	})
}

func TestPermissionResolver_WorkspaceVisibility(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sess := &domain.Session{ID: uuid.New(), OwnerID: uuid.New(), Visibility: domain.VisibilityWorkspace}

	mockPermRepo := new(MockPermissionRepository)
	mockPermRepo.On("Get", ctx, sess.ID, domain.PrincipalUser, userID).Return(nil, nil)
	mockPermRepo.On("ListBySession", ctx, sess.ID).Return([]domain.Permission{}, nil)

	mockDirectory := new(MockGroupDirectory)

	resolver := NewPermissionResolver(mockPermRepo, mockDirectory, nil)

	canRead, err := resolver.CanRead(ctx, userID, sess)
	assert.NoError(t, err)
	assert.True(t, canRead)

	// Workspace visibility never grants edit.
	canEdit, err := resolver.CanEdit(ctx, userID, sess)
	assert.NoError(t, err)
	assert.False(t, canEdit)
}

func TestPermissionResolver_Grant(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	sess := &domain.Session{ID: uuid.New(), OwnerID: ownerID}

	t.Run("owner grants", func(t *testing.T) {
		mockPermRepo := new(MockPermissionRepository)
		mockPermRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Permission")).Return(nil)

		resolver := NewPermissionResolver(mockPermRepo, nil, nil)

		err := resolver.Grant(ctx, ownerID, sess, domain.PrincipalUser, uuid.New(), domain.PermissionRead)
		assert.NoError(t, err)
		mockPermRepo.AssertExpectations(t)
	})

	t.Run("non-owner cannot grant", func(t *testing.T) {
		resolver := NewPermissionResolver(new(MockPermissionRepository), nil, nil)

		err := resolver.Grant(ctx, uuid.New(), sess, domain.PrincipalUser, uuid.New(), domain.PermissionRead)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("invalid level rejected", func(t *testing.T) {
		resolver := NewPermissionResolver(new(MockPermissionRepository), nil, nil)

		err := resolver.Grant(ctx, ownerID, sess, domain.PrincipalUser, uuid.New(), "admin")
		assert.Error(t, err)
	})
}

func TestStaticGroupDirectory(t *testing.T) {
	groupID := uuid.New()
	memberID := uuid.New()
	strangerID := uuid.New()

	dir := NewStaticGroupDirectory(map[string][]string{
		groupID.String(): {memberID.String()},
		"not-a-uuid":     {memberID.String()},
		uuid.NewString(): {"also-not-a-uuid"},
	})

	member, err := dir.IsMember(context.Background(), memberID, groupID)
	assert.NoError(t, err)
	assert.True(t, member)

	member, err = dir.IsMember(context.Background(), strangerID, groupID)
	assert.NoError(t, err)
	assert.False(t, member)

	member, err = dir.IsMember(context.Background(), memberID, uuid.New())
	assert.NoError(t, err)
	assert.False(t, member)
}
