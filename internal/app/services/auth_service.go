package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
)

const studentIDAttempts = 10

// AuthService defines authentication and profile operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error)
}

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	userRepo   repositories.IUserRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
	// studentNumber draws the 6-digit suffix of generated student IDs
	studentNumber func() int
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.IUserRepository, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		userRepo:      userRepo,
		jwtService:    jwtService,
		logger:        logger.With().Str("service", "auth").Logger(),
		studentNumber: func() int { return rand.Intn(1_000_000) },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nextStudentID generates an unused STU###### identifier
func (s *authServiceImpl) nextStudentID(ctx context.Context) (string, error) {
	for i := 0; i < studentIDAttempts; i++ {
		candidate := fmt.Sprintf("STU%06d", s.studentNumber())
		exists, err := s.userRepo.StudentIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("error checking student ID: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique student ID after %d attempts", studentIDAttempts)
}

// Register creates an account and signs the user in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleAdmin {
		return nil, apperrors.NewForbiddenError("admin accounts cannot be self-registered")
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	user := &models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Role:  role,
		Major: strings.TrimSpace(req.Major),
		Year:  models.AcademicYear(req.Year).Normalize(),
	}
	if req.GPA != nil {
		user.GPA = *req.GPA
	}

	if role == models.RoleStudent {
		sid := strings.TrimSpace(req.StudentID)
		if sid == "" {
			if sid, err = s.nextStudentID(ctx); err != nil {
				return nil, err
			}
		} else {
			taken, err := s.userRepo.StudentIDExists(ctx, sid)
			if err != nil {
				return nil, fmt.Errorf("error checking student ID: %w", err)
			}
			if taken {
				return nil, apperrors.ErrStudentIDExists
			}
		}
		user.StudentID = &sid
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = hashed

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.authResponse(user)
}

// Login verifies credentials and returns a token with the full profile
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Password mismatch on login")
		return nil, apperrors.ErrInvalidCredentials
	}

	full, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.authResponse(full)
}

func (s *authServiceImpl) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.FromUser(user),
	}, nil
}

// Me returns the authenticated user's profile
func (s *authServiceImpl) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies the provided profile fields
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Major != nil {
		user.Major = strings.TrimSpace(*req.Major)
	}
	if req.Year != nil {
		user.Year = models.AcademicYear(*req.Year).Normalize()
	}
	if req.GPA != nil {
		user.GPA = *req.GPA
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
