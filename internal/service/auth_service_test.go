package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"venuebook/internal/auth"
	"venuebook/internal/errors"
	"venuebook/internal/logger"
	"venuebook/internal/model"
)

func hashedUser(t *testing.T, username, password string, role model.Role, status model.UserStatus) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{Username: username, PasswordHash: string(hash), Role: role, Status: status}
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful signup",
			username: "alice",
			password: "secret",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "username taken",
			username: "bob",
			password: "secret",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "bob").Return(&model.User{Username: "bob"}, nil)
			},
			expectedError: errors.ErrUsernameTaken,
		},
		{
			name:     "duplicate on insert",
			username: "carol",
			password: "secret",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "carol").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: errors.ErrUsernameTaken,
		},
		{
			name:          "missing password",
			username:      "dave",
			setupMock:     func(*MockUserRepository) {},
			expectedError: errors.ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)
			svc := NewAuthService(repo, auth.NewJWTService("test-secret"), new(MockTokenStore), logger.NewForTests())

			user, err := svc.Signup(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.username, user.Username)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.Equal(t, model.UserActive, user.Status)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		user          *model.User
		findErr       error
		expectStore   bool
		expectedError error
	}{
		{name: "successful login", password: "secret", user: hashedUser(t, "alice", "secret", model.RoleAdmin, model.UserActive), expectStore: true},
		{name: "wrong password", password: "nope", user: hashedUser(t, "alice", "secret", model.RoleUser, model.UserActive), expectedError: errors.ErrInvalidCredentials},
		{name: "unknown user", password: "secret", findErr: gorm.ErrRecordNotFound, expectedError: errors.ErrInvalidCredentials},
		{name: "inactive account", password: "secret", user: hashedUser(t, "alice", "secret", model.RoleUser, model.UserInactive), expectedError: errors.ErrAccountInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			store := new(MockTokenStore)
			if tt.user != nil {
				repo.On("FindByUsername", mock.Anything, "alice").Return(tt.user, nil)
			} else {
				repo.On("FindByUsername", mock.Anything, "alice").Return(nil, tt.findErr)
			}
			if tt.expectStore {
				store.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), "alice", auth.RefreshTokenExpiry).Return(nil)
			}
			svc := NewAuthService(repo, auth.NewJWTService("test-secret"), store, logger.NewForTests())

			res, err := svc.Login(context.Background(), "alice", tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", res.Username)
				assert.True(t, res.IsAdmin)
				assert.NotEmpty(t, res.AccessToken)
				assert.NotEmpty(t, res.RefreshToken)
			}
			repo.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshTokenUsesCurrentRole(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret")
	tokenID, refresh, err := jwtSvc.GenerateRefreshToken("alice", "user")
	require.NoError(t, err)

	repo := new(MockUserRepository)
	store := new(MockTokenStore)
	store.On("GetRefreshToken", mock.Anything, tokenID).Return("alice", nil)
	repo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{Username: "alice", Role: model.RoleAdmin, Status: model.UserActive}, nil)
	svc := NewAuthService(repo, jwtSvc, store, logger.NewForTests())

	access, err := svc.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(access)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestAuthService_RefreshTokenRevoked(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret")
	tokenID, refresh, err := jwtSvc.GenerateRefreshToken("alice", "user")
	require.NoError(t, err)

	store := new(MockTokenStore)
	store.On("GetRefreshToken", mock.Anything, tokenID).Return("", auth.ErrRefreshTokenNotFound)
	svc := NewAuthService(new(MockUserRepository), jwtSvc, store, logger.NewForTests())

	_, err = svc.RefreshToken(context.Background(), refresh)
	assert.Equal(t, errors.ErrInvalidRefreshToken, err)

	_, err = svc.RefreshToken(context.Background(), "garbage")
	assert.Equal(t, errors.ErrInvalidRefreshToken, err)
}

func TestAuthService_Logout(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret")
	access, err := jwtSvc.GenerateAccessToken("alice", "user")
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(access)
	require.NoError(t, err)
	refreshID, refresh, err := jwtSvc.GenerateRefreshToken("alice", "user")
	require.NoError(t, err)

	store := new(MockTokenStore)
	store.On("BlacklistAccessToken", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
	store.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
	svc := NewAuthService(new(MockUserRepository), jwtSvc, store, logger.NewForTests())

	require.NoError(t, svc.Logout(context.Background(), claims, refresh))
	store.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", mock.Anything, "root").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "root" && u.Role == model.RoleAdmin
		})).Return(nil)
		svc := NewAuthService(repo, auth.NewJWTService("s"), new(MockTokenStore), logger.NewForTests())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "root", "pw"))
		repo.AssertExpectations(t)
	})

	t.Run("restores demoted admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", mock.Anything, "root").Return(&model.User{Username: "root", Role: model.RoleUser, Status: model.UserInactive}, nil)
		repo.On("UpdateRole", mock.Anything, "root", model.RoleAdmin).Return(nil)
		repo.On("UpdateStatus", mock.Anything, "root", model.UserActive).Return(nil)
		svc := NewAuthService(repo, auth.NewJWTService("s"), new(MockTokenStore), logger.NewForTests())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "root", "pw"))
		repo.AssertExpectations(t)
	})

	t.Run("skips without password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, auth.NewJWTService("s"), new(MockTokenStore), logger.NewForTests())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "root", ""))
		repo.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	})
}
