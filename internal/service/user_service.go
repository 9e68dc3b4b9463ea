package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"venuebook/internal/errors"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

// UserService exposes user administration.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, username string) error
	ToggleUserStatus(ctx context.Context, username string) (*model.User, error)
	ToggleUserRole(ctx context.Context, username string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
	// protected is the designated admin account that cannot be modified.
	protected string
}

// NewUserService builds a UserService. protectedAdmin names the account
// that must never be deleted, deactivated or demoted.
func NewUserService(repo repository.UserRepository, protectedAdmin string) UserService {
	return &userService{repo: repo, protected: protectedAdmin}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// guard compares against the stored username. The users table collation
// ignores case and trailing spaces, so lookups match names like "Admin ".
func (s *userService) guard(user *model.User) error {
	protected := strings.TrimRight(s.protected, " ")
	if protected != "" && strings.EqualFold(strings.TrimRight(user.Username, " "), protected) {
		return errors.ErrProtectedAccount
	}
	return nil
}

// target resolves username to its stored row and refuses the protected admin.
func (s *userService) target(ctx context.Context, username string) (*model.User, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.guard(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) find(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user together with all of their bookings.
func (s *userService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.target(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWithBookings(ctx, user.Username); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ToggleUserStatus flips a user between active and inactive.
func (s *userService) ToggleUserStatus(ctx context.Context, username string) (*model.User, error) {
	user, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}

	next := model.UserInactive
	if !user.IsActive() {
		next = model.UserActive
	}
	if err := s.repo.UpdateStatus(ctx, user.Username, next); err != nil {
		return nil, fmt.Errorf("toggle user status: %w", err)
	}
	user.Status = next
	return user, nil
}

// ToggleUserRole flips a user between user and admin.
func (s *userService) ToggleUserRole(ctx context.Context, username string) (*model.User, error) {
	user, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}

	next := model.RoleAdmin
	if user.IsAdmin() {
		next = model.RoleUser
	}
	if err := s.repo.UpdateRole(ctx, user.Username, next); err != nil {
		return nil, fmt.Errorf("toggle user role: %w", err)
	}
	user.Role = next
	return user, nil
}
