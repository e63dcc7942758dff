package dto

import (
	"time"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a self-registration request. Role defaults to student.
type RegisterRequest struct {
	Name      string   `json:"name" binding:"required,min=2,max=100"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=6"`
	Role      string   `json:"role" binding:"omitempty,oneof=student faculty admin"`
	StudentID string   `json:"studentId" binding:"omitempty,max=20"`
	Major     string   `json:"major" binding:"omitempty,max=100"`
	Year      string   `json:"year" binding:"omitempty,oneof=freshman sophomore junior senior graduate Freshman Sophomore Junior Senior Graduate"`
	GPA       *float64 `json:"gpa" binding:"omitempty,gte=0,lte=4"`
}

// UpdateProfileRequest represents profile update data. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name  *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Major *string  `json:"major" binding:"omitempty,max=100"`
	Year  *string  `json:"year" binding:"omitempty,oneof=freshman sophomore junior senior graduate Freshman Sophomore Junior Senior Graduate"`
	GPA   *float64 `json:"gpa" binding:"omitempty,gte=0,lte=4"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserResponse represents user information without credentials
type UserResponse struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Role            models.Role         `json:"role"`
	StudentID       *string             `json:"studentId,omitempty"`
	GPA             float64             `json:"gpa"`
	Major           string              `json:"major,omitempty"`
	Year            models.AcademicYear `json:"year,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	EnrolledCourses []models.Enrollment `json:"enrolledCourses"`
}

// FromUser converts a models.User to a UserResponse
func FromUser(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	enrolled := u.EnrolledCourses
	if enrolled == nil {
		enrolled = []models.Enrollment{}
	}
	return &UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		StudentID:       u.StudentID,
		GPA:             u.GPA,
		Major:           u.Major,
		Year:            u.Year,
		CreatedAt:       u.CreatedAt,
		EnrolledCourses: enrolled,
	}
}

// FromUsers converts a list of users
func FromUsers(users []*models.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}
