package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"venuebook/internal/auth"
	"venuebook/internal/errors"
	"venuebook/internal/logger"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

const bcryptCost = 10

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Username     string `json:"username"`
	IsAdmin      bool   `json:"isAdmin"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	EnsureAdmin(ctx context.Context, username, password string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	log        logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log logger.Logger) AuthService {
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
	}
}

// Signup creates a regular user with a hashed password.
func (s *authService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.ErrMissingCredentials
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, errors.ErrUsernameTaken
	}
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	user, err := s.newUser(username, password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) newUser(username, password string, role model.Role) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &model.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       model.UserActive,
	}, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.ErrMissingCredentials
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, errors.ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.Username, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		Username:     user.Username,
		IsAdmin:      user.IsAdmin(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken validates a refresh token and returns a new access token
// carrying the user's current role.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", errors.ErrInvalidRefreshToken
	}

	storedUsername, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUsername != claims.Username {
		return "", errors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByUsername(ctx, claims.Username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return "", errors.ErrAccountInactive
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.Username, string(user.Role))
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout blacklists the current access token and revokes the refresh token.
func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if access != nil && access.ID != "" {
		if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, s.jwtService.RemainingTTL(access)); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return errors.ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, claims.ID)
}

// EnsureAdmin creates the designated admin account, or restores its admin
// role and active status. An empty password leaves the store untouched.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.log.Warn("admin bootstrap skipped, ADMIN_PASSWORD not set", "username", username)
		return nil
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, username, model.RoleAdmin); err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
		}
		if !existing.IsActive() {
			if err := s.userRepo.UpdateStatus(ctx, username, model.UserActive); err != nil {
				return fmt.Errorf("activate admin: %w", err)
			}
		}
		return nil
	case !stderrors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("find admin: %w", err)
	}

	user, err := s.newUser(username, password, model.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin account created", "username", username)
	return nil
}
