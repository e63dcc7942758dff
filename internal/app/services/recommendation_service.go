package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/recommend"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
)

// RecommendationService is the read-only advisory side of the catalog
type RecommendationService interface {
	Recommend(ctx context.Context, studentID int64, limit int) (*dto.RecommendationsResponse, error)
	OptimizeSchedule(ctx context.Context, studentID int64, courseIDs []int64) (*dto.ScheduleOptimizationResponse, error)
	AnalyzeLoad(ctx context.Context, studentID int64) (*recommend.LoadAnalysis, error)
	ForecastDemand(ctx context.Context) ([]recommend.DemandForecast, error)
}

type recommendationServiceImpl struct {
	userRepo   repositories.IUserRepository
	courseRepo repositories.ICourseRepository
	logger     zerolog.Logger
}

// NewRecommendationService creates a new recommendation service instance
func NewRecommendationService(
	userRepo repositories.IUserRepository,
	courseRepo repositories.ICourseRepository,
	logger zerolog.Logger,
) RecommendationService {
	return &recommendationServiceImpl{
		userRepo:   userRepo,
		courseRepo: courseRepo,
		logger:     logger.With().Str("service", "recommendation").Logger(),
	}
}

func (s *recommendationServiceImpl) student(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, apperrors.ErrStudentNotFound
	}
	return user, nil
}

// Recommend ranks the active catalog for the student
func (s *recommendationServiceImpl) Recommend(ctx context.Context, studentID int64, limit int) (*dto.RecommendationsResponse, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.courseRepo.ListWithRosters(ctx, repositories.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}

	completed := 0
	for _, e := range student.EnrolledCourses {
		if e.Status == models.StatusCompleted {
			completed++
		}
	}

	recs := recommend.Recommend(student, catalog, limit)
	s.logger.Debug().Int64("studentID", studentID).Int("count", len(recs)).Msg("Recommendations computed")

	return &dto.RecommendationsResponse{
		Recommendations: recs,
		StudentProfile: dto.StudentProfile{
			Major:            student.Major,
			Year:             student.Year,
			GPA:              student.GPA,
			CompletedCourses: completed,
			EnrolledCredits:  recommend.EnrolledCredits(student),
		},
	}, nil
}

// OptimizeSchedule checks each candidate course against the student's current schedule
func (s *recommendationServiceImpl) OptimizeSchedule(ctx context.Context, studentID int64, courseIDs []int64) (*dto.ScheduleOptimizationResponse, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.courseRepo.GetByIDs(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}
	active := candidates[:0]
	for _, c := range candidates {
		if c.IsActive {
			active = append(active, c)
		}
	}

	return &dto.ScheduleOptimizationResponse{
		Analysis:       recommend.OptimizeSchedule(student, active),
		CurrentCredits: recommend.EnrolledCredits(student),
	}, nil
}

// AnalyzeLoad summarizes a student's current credit load
func (s *recommendationServiceImpl) AnalyzeLoad(ctx context.Context, studentID int64) (*recommend.LoadAnalysis, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	analysis := recommend.AnalyzeLoad(student)
	return &analysis, nil
}

// ForecastDemand rates every active course by how full it is
func (s *recommendationServiceImpl) ForecastDemand(ctx context.Context) ([]recommend.DemandForecast, error) {
	courses, err := s.courseRepo.ListWithRosters(ctx, repositories.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}
	students, err := s.userRepo.ListWithEnrollments(ctx, repositories.UserFilter{Role: models.RoleStudent})
	if err != nil {
		return nil, fmt.Errorf("error loading students: %w", err)
	}
	return recommend.ForecastDemand(courses, students), nil
}
