package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/alerting"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RegistrationService mutates the enrollment ledger. Every call is a single
// unit of work in the ledger repository.
type RegistrationService interface {
	Register(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Drop(ctx context.Context, studentID, courseID int64) error
	Complete(ctx context.Context, studentID, courseID int64) error

	// AssignCourse and RemoveCourse are the admin paths; they run the same rules
	// after checking that the target user is a student
	AssignCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	RemoveCourse(ctx context.Context, studentID, courseID int64) error

	MyCourses(ctx context.Context, studentID int64) ([]*models.Course, error)
}

// registrationServiceImpl implements the RegistrationService interface
type registrationServiceImpl struct {
	userRepo   repositories.IUserRepository
	ledgerRepo repositories.ILedgerRepository
	alerter    alerting.Alerter
	tracer     trace.Tracer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRegistrationService creates a new registration service instance
func NewRegistrationService(
	userRepo repositories.IUserRepository,
	ledgerRepo repositories.ILedgerRepository,
	alerter alerting.Alerter,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationServiceImpl{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		alerter:    alerter,
		tracer:     telemetry.Tracer(),
		logger:     logger.With().Str("service", "registration").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *registrationServiceImpl) startSpan(ctx context.Context, name string, studentID, courseID int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("student.id", studentID),
		attribute.Int64("course.id", courseID),
	))
}

// finish records the outcome on the span and raises an alert when the ledger
// was found partially written
func (s *registrationServiceImpl) finish(span trace.Span, op string, studentID, courseID int64, err error) {
	defer span.End()

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	if reason, ok := apperrors.ConflictReason(err); ok {
		// a denial is a normal outcome, not a span error
		span.SetAttributes(attribute.String("registration.denied", reason))
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, apperrors.ErrLedgerInconsistent) {
		s.logger.Error().Err(err).
			Bool("alert", true).
			Str("operation", op).
			Int64("studentID", studentID).
			Int64("courseID", courseID).
			Msg("Enrollment ledger inconsistent")
		s.alerter.Critical(err, map[string]interface{}{
			"operation": op,
			"studentId": studentID,
			"courseId":  courseID,
		})
	}
}

// Register enrolls a student in a course
func (s *registrationServiceImpl) Register(ctx context.Context, studentID, courseID int64) (enrollment *models.Enrollment, err error) {
	ctx, span := s.startSpan(ctx, "registration.Register", studentID, courseID)
	defer func() { s.finish(span, "register", studentID, courseID, err) }()

	enrollment, err = s.ledgerRepo.Enroll(ctx, studentID, courseID, s.now())
	if err != nil {
		return enrollment, err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Student registered")
	return enrollment, nil
}

// Drop removes a student from a course
func (s *registrationServiceImpl) Drop(ctx context.Context, studentID, courseID int64) (err error) {
	ctx, span := s.startSpan(ctx, "registration.Drop", studentID, courseID)
	defer func() { s.finish(span, "drop", studentID, courseID, err) }()

	if err = s.ledgerRepo.Drop(ctx, studentID, courseID, s.now()); err != nil {
		return err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Student dropped course")
	return nil
}

// Complete closes an active enrollment as completed, freeing the seat
func (s *registrationServiceImpl) Complete(ctx context.Context, studentID, courseID int64) (err error) {
	if err = s.requireStudent(ctx, studentID); err != nil {
		return err
	}

	ctx, span := s.startSpan(ctx, "registration.Complete", studentID, courseID)
	defer func() { s.finish(span, "complete", studentID, courseID, err) }()

	if err = s.ledgerRepo.Complete(ctx, studentID, courseID, s.now()); err != nil {
		return err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Enrollment completed")
	return nil
}

// requireStudent maps a missing or non-student user to ErrStudentNotFound
func (s *registrationServiceImpl) requireStudent(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error getting user: %w", err)
	}
	if !user.IsStudent() {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// AssignCourse enrolls a student on an admin's behalf
func (s *registrationServiceImpl) AssignCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.Register(ctx, studentID, courseID)
}

// RemoveCourse drops a student on an admin's behalf
func (s *registrationServiceImpl) RemoveCourse(ctx context.Context, studentID, courseID int64) error {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return err
	}
	return s.Drop(ctx, studentID, courseID)
}

// MyCourses lists the active courses the student is currently enrolled in
func (s *registrationServiceImpl) MyCourses(ctx context.Context, studentID int64) ([]*models.Course, error) {
	user, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courses := make([]*models.Course, 0, len(user.EnrolledCourses))
	for _, e := range user.EnrolledCourses {
		if e.Status != models.StatusEnrolled || e.Course == nil || !e.Course.IsActive {
			continue
		}
		courses = append(courses, e.Course)
	}
	return courses, nil
}
