package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/audit"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
)

const (
	popularCoursesLimit      = 5
	recentRegistrationsLimit = 10
)

// AnalyticsService produces reports over the whole ledger
type AnalyticsService interface {
	FacultyStats(ctx context.Context) (*dto.FacultyStats, error)
	SystemStats(ctx context.Context) (*dto.SystemStats, error)
	DetectAnomalies(ctx context.Context, timeframe string) (*audit.Report, error)
	// Audit cross-checks both sides of the ledger, inactive courses included
	Audit(ctx context.Context) (*audit.Reconciliation, error)
	CatalogHealth(ctx context.Context) (*audit.CatalogHealth, error)
}

type analyticsServiceImpl struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service instance
func NewAnalyticsService(repos *repositories.Repositories, logger zerolog.Logger) AnalyticsService {
	return &analyticsServiceImpl{
		repos:  repos,
		logger: logger.With().Str("service", "analytics").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FacultyStats returns the student count and per-course roster sizes
func (s *analyticsServiceImpl) FacultyStats(ctx context.Context) (*dto.FacultyStats, error) {
	counts, err := s.repos.Users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	courses, err := s.repos.Courses.ListWithRosters(ctx, repositories.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}

	data := make([]dto.CourseEnrollment, 0, len(courses))
	for _, c := range courses {
		data = append(data, dto.CourseEnrollment{
			CourseID:        c.ID,
			CourseCode:      c.CourseCode,
			EnrollmentCount: len(c.EnrolledStudents),
		})
	}

	return &dto.FacultyStats{
		TotalStudents:  counts[models.RoleStudent],
		TotalCourses:   int64(len(courses)),
		EnrollmentData: data,
	}, nil
}

// SystemStats returns the admin dashboard totals
func (s *analyticsServiceImpl) SystemStats(ctx context.Context) (*dto.SystemStats, error) {
	counts, err := s.repos.Users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	totalCourses, err := s.repos.Courses.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting courses: %w", err)
	}
	totalEnrollments, err := s.repos.Ledger.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting enrollments: %w", err)
	}
	popular, err := s.repos.Courses.MostPopular(ctx, popularCoursesLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading popular courses: %w", err)
	}
	recent, err := s.repos.Ledger.RecentRegistrations(ctx, recentRegistrationsLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading recent registrations: %w", err)
	}

	var totalUsers int64
	for _, n := range counts {
		totalUsers += n
	}

	stats := &dto.SystemStats{
		TotalUsers:          totalUsers,
		TotalStudents:       counts[models.RoleStudent],
		TotalFaculty:        counts[models.RoleFaculty],
		TotalCourses:        totalCourses,
		TotalEnrollments:    totalEnrollments,
		PopularCourses:      make([]dto.PopularCourse, 0, len(popular)),
		RecentRegistrations: recent,
	}
	for _, c := range popular {
		stats.PopularCourses = append(stats.PopularCourses, dto.PopularCourse{
			ID:                c.ID,
			CourseCode:        c.CourseCode,
			Title:             c.Title,
			CurrentEnrollment: c.CurrentEnrollment,
			MaxCapacity:       c.MaxCapacity,
		})
	}
	if stats.RecentRegistrations == nil {
		stats.RecentRegistrations = []models.RegistrationEvent{}
	}
	return stats, nil
}

func (s *analyticsServiceImpl) snapshot(ctx context.Context, includeInactive bool) ([]*models.Course, []*models.User, error) {
	courses, err := s.repos.Courses.ListWithRosters(ctx, repositories.CourseFilter{IncludeInactive: includeInactive})
	if err != nil {
		return nil, nil, fmt.Errorf("error loading courses: %w", err)
	}
	students, err := s.repos.Users.ListWithEnrollments(ctx, repositories.UserFilter{Role: models.RoleStudent})
	if err != nil {
		return nil, nil, fmt.Errorf("error loading students: %w", err)
	}
	return courses, students, nil
}

// DetectAnomalies runs the anomaly detectors over the given timeframe
func (s *analyticsServiceImpl) DetectAnomalies(ctx context.Context, timeframe string) (*audit.Report, error) {
	courses, students, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}

	report := audit.Detect(courses, students, timeframe, s.now())
	if report.Summary.HighSeverity > 0 {
		s.logger.Warn().
			Int("highSeverity", report.Summary.HighSeverity).
			Strs("categories", report.Summary.Categories).
			Msg("High severity enrollment anomalies detected")
	}
	return &report, nil
}

// Audit reconciles course rosters and counters with student records
func (s *analyticsServiceImpl) Audit(ctx context.Context) (*audit.Reconciliation, error) {
	courses, students, err := s.snapshot(ctx, true)
	if err != nil {
		return nil, err
	}

	rec := audit.Reconcile(courses, students)
	if rec.Drifted > 0 {
		s.logger.Error().Bool("alert", true).Int("drifted", rec.Drifted).Msg("Ledger audit found drifted courses")
	}
	return &rec, nil
}

// CatalogHealth checks the active catalog against the student body
func (s *analyticsServiceImpl) CatalogHealth(ctx context.Context) (*audit.CatalogHealth, error) {
	courses, students, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}

	health := audit.CheckCatalogHealth(courses, students)
	if len(health.Issues) > 0 {
		s.logger.Info().Strs("issues", health.Issues).Str("overallHealth", health.OverallHealth).Msg("Catalog health issues found")
	}
	return &health, nil
}
