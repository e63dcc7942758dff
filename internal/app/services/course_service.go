package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

// CourseService defines catalog operations. Enrollment state is owned by RegistrationService.
type CourseService interface {
	ListCourses(ctx context.Context, filter repositories.CourseFilter, page helpers.Page) ([]*models.Course, int64, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	// ListWithRosters returns every active course with its roster, ordered by code
	ListWithRosters(ctx context.Context) ([]*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, id int64, course *models.Course) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
}

// courseServiceImpl implements the CourseService interface
type courseServiceImpl struct {
	courseRepo repositories.ICourseRepository
	logger     zerolog.Logger
}

// NewCourseService creates a new course service instance
func NewCourseService(courseRepo repositories.ICourseRepository, logger zerolog.Logger) CourseService {
	return &courseServiceImpl{
		courseRepo: courseRepo,
		logger:     logger.With().Str("service", "course").Logger(),
	}
}

// validateCourse checks rules that binding tags cannot express
func (s *courseServiceImpl) validateCourse(course *models.Course) error {
	if course == nil {
		return fmt.Errorf("%w: course is nil", apperrors.ErrValidationFailed)
	}

	course.CourseCode = strings.ToUpper(strings.TrimSpace(course.CourseCode))
	if course.CourseCode == "" {
		return fmt.Errorf("%w: course code cannot be empty", apperrors.ErrValidationFailed)
	}

	// zero-padded HH:MM compares correctly as a string
	if course.Schedule.EndTime <= course.Schedule.StartTime {
		return fmt.Errorf("%w: schedule end time must be after start time", apperrors.ErrValidationFailed)
	}
	if len(course.Schedule.Days) == 0 {
		return fmt.Errorf("%w: schedule needs at least one day", apperrors.ErrValidationFailed)
	}

	if course.MaxCapacity < 1 {
		return fmt.Errorf("%w: max capacity must be at least 1", apperrors.ErrValidationFailed)
	}

	for i, p := range course.Prerequisites {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == course.CourseCode {
			return fmt.Errorf("%w: a course cannot be its own prerequisite", apperrors.ErrValidationFailed)
		}
		course.Prerequisites[i] = p
	}

	return nil
}

// ListCourses returns one page of the catalog
func (s *courseServiceImpl) ListCourses(ctx context.Context, filter repositories.CourseFilter, page helpers.Page) ([]*models.Course, int64, error) {
	courses, total, err := s.courseRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing courses: %w", err)
	}
	return courses, total, nil
}

// GetCourse retrieves an active course with its roster
func (s *courseServiceImpl) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

// ListWithRosters returns active courses with rosters
func (s *courseServiceImpl) ListWithRosters(ctx context.Context) ([]*models.Course, error) {
	return s.courseRepo.ListWithRosters(ctx, repositories.CourseFilter{})
}

// CreateCourse validates and stores a new course
func (s *courseServiceImpl) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := s.validateCourse(course); err != nil {
		return err
	}

	exists, err := s.courseRepo.ExistsByCodeTerm(ctx, course.CourseCode, course.Semester, course.Year, 0)
	if err != nil {
		return fmt.Errorf("error checking course code: %w", err)
	}
	if exists {
		return apperrors.ErrCourseAlreadyExists
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return err
	}

	s.logger.Info().Int64("courseID", course.ID).Str("courseCode", course.CourseCode).Msg("Course created")
	return nil
}

// UpdateCourse replaces the catalog fields of a course. The seat counter and
// roster are never touched here.
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id int64, course *models.Course) (*models.Course, error) {
	existing, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	course.ID = id
	if err := s.validateCourse(course); err != nil {
		return nil, err
	}
	if course.MaxCapacity < existing.CurrentEnrollment {
		return nil, fmt.Errorf("%w: max capacity cannot be below current enrollment (%d)",
			apperrors.ErrValidationFailed, existing.CurrentEnrollment)
	}

	exists, err := s.courseRepo.ExistsByCodeTerm(ctx, course.CourseCode, course.Semester, course.Year, id)
	if err != nil {
		return nil, fmt.Errorf("error checking course code: %w", err)
	}
	if exists {
		return nil, apperrors.ErrCourseAlreadyExists
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", id).Msg("Course updated")
	return s.courseRepo.GetByID(ctx, id)
}

// DeleteCourse soft-deletes a course. Existing enrollments are left as they are.
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.courseRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("courseID", id).Msg("Course deactivated")
	return nil
}
