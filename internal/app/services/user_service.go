package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

// UserService defines the interface for user administration
type UserService interface {
	ListUsers(ctx context.Context, filter repositories.UserFilter, page helpers.Page) ([]*models.User, int64, error)
	// ListStudents returns every student with enrollments, ordered by name
	ListStudents(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, actorID, userID int64, role models.Role) (*models.User, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo repositories.IUserRepository
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.IUserRepository, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// ListUsers returns one page of users matching filter
func (s *userServiceImpl) ListUsers(ctx context.Context, filter repositories.UserFilter, page helpers.Page) ([]*models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	return users, total, nil
}

// ListStudents returns all students with their enrollment records
func (s *userServiceImpl) ListStudents(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.ListWithEnrollments(ctx, repositories.UserFilter{Role: models.RoleStudent})
}

// UpdateRole changes another user's role. An admin cannot change their own role.
func (s *userServiceImpl) UpdateRole(ctx context.Context, actorID, userID int64, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewBadRequestError("invalid role")
	}
	if actorID == userID {
		return nil, apperrors.NewForbiddenError("you cannot change your own role")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("actorID", actorID).Int64("userID", userID).Str("role", string(role)).Msg("User role updated")
	return s.userRepo.GetByID(ctx, userID)
}
