package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/registration"
	"github.com/sparks-2204/course-recommendation-system/internal/db"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/dberrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
)

// ILedgerRepository owns both sides of the enrollment ledger. Each method is
// one unit of work: the rule engine runs against fresh state and both sides
// are written together or not at all.
//
// A rule denial is returned as registration.Decision.Err(). When the two
// sides were already out of step the change is still applied and an
// apperrors.ErrLedgerInconsistent error is returned.
type ILedgerRepository interface {
	Enroll(ctx context.Context, studentID, courseID int64, at time.Time) (*models.Enrollment, error)
	Drop(ctx context.Context, studentID, courseID int64, at time.Time) error
	Complete(ctx context.Context, studentID, courseID int64, at time.Time) error

	CountActive(ctx context.Context) (int64, error)
	RecentRegistrations(ctx context.Context, limit int) ([]models.RegistrationEvent, error)
}

// LedgerRepository is the PostgreSQL ledger. A student's row is locked for the
// whole transaction, and the seat counter is taken with a compare-and-swap.
type LedgerRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(database *db.PostgresDB) *LedgerRepository {
	return &LedgerRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// lockStudent loads the student and the course FOR UPDATE, plus the student's enrollments
func (r *LedgerRepository) lockStudent(ctx context.Context, tx pgx.Tx, studentID, courseID int64) (*models.User, *models.Course, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users u").
		Where(squirrel.Eq{"u.id": studentID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build lock student query: %w", err)
	}
	student, err := scanUser(tx.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrStudentNotFound
		}
		return nil, nil, fmt.Errorf("error locking student: %w", err)
	}
	// the role may have changed since the caller's token was issued
	if !student.IsStudent() {
		return nil, nil, apperrors.ErrStudentNotFound
	}
	if err := loadEnrollments(ctx, tx, r.sb, []*models.User{student}); err != nil {
		return nil, nil, err
	}

	sql, args, err = r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": courseID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build course query: %w", err)
	}
	course, err := scanCourse(tx.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return student, nil, nil
		}
		return nil, nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return student, course, nil
}

// Enroll registers a student for a course
func (r *LedgerRepository) Enroll(ctx context.Context, studentID, courseID int64, at time.Time) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	drifted := false

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		student, course, err := r.lockStudent(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}
		if d := registration.CanRegister(student, course); !d.Allowed {
			return d.Err()
		}

		// seat CAS: a concurrent registration may have taken the last seat
		sql, args, err := r.sb.Update("courses").
			Set("current_enrollment", squirrel.Expr("current_enrollment + 1")).
			Where(squirrel.Eq{"id": courseID, "is_active": true}).
			Where("current_enrollment < max_capacity").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build seat update query: %w", err)
		}
		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error taking seat: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return registration.Deny(registration.ReasonFull).Err()
		}

		e := &models.Enrollment{CourseID: courseID, EnrolledAt: at, Status: models.StatusEnrolled, Course: course}
		sql, args, err = r.sb.Insert("enrollments").
			Columns("user_id", "course_id", "status", "enrolled_at").
			Values(studentID, courseID, models.StatusEnrolled, at).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build enrollment insert: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&e.ID); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "enrollments_active_key") {
				return registration.Deny(registration.ReasonAlreadyEnrolled).Err()
			}
			return fmt.Errorf("error inserting enrollment: %w", err)
		}

		sql, args, err = r.sb.Insert("course_roster").
			Columns("course_id", "user_id", "enrolled_at").
			Values(courseID, studentID, at).
			Suffix("ON CONFLICT (course_id, user_id) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build roster insert: %w", err)
		}
		cmdTag, err = tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error inserting roster entry: %w", err)
		}
		drifted = cmdTag.RowsAffected() == 0

		course.CurrentEnrollment++
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if drifted {
		return enrollment, apperrors.NewInconsistencyError("roster already listed student on registration", studentID, courseID)
	}
	return enrollment, nil
}

// Drop marks the active enrollment dropped and removes the roster entry
func (r *LedgerRepository) Drop(ctx context.Context, studentID, courseID int64, at time.Time) error {
	return r.leave(ctx, studentID, courseID, models.StatusDropped, at)
}

// Complete marks the active enrollment completed and frees the seat
func (r *LedgerRepository) Complete(ctx context.Context, studentID, courseID int64, at time.Time) error {
	return r.leave(ctx, studentID, courseID, models.StatusCompleted, at)
}

func (r *LedgerRepository) leave(ctx context.Context, studentID, courseID int64, status models.EnrollmentStatus, at time.Time) error {
	drifted := false

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		student, course, err := r.lockStudent(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}
		if d := registration.CanDrop(student, course); !d.Allowed {
			return d.Err()
		}

		update := r.sb.Update("enrollments").
			Set("status", status).
			Where(squirrel.Eq{"user_id": studentID, "course_id": courseID, "status": models.StatusEnrolled})
		if status == models.StatusDropped {
			update = update.Set("dropped_at", at)
		}
		sql, args, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build enrollment update: %w", err)
		}
		cmdTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error updating enrollment: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return registration.Deny(registration.ReasonNotEnrolled).Err()
		}

		sql, args, err = r.sb.Delete("course_roster").
			Where(squirrel.Eq{"course_id": courseID, "user_id": studentID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build roster delete: %w", err)
		}
		cmdTag, err = tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error deleting roster entry: %w", err)
		}
		drifted = cmdTag.RowsAffected() == 0

		sql, args, err = r.sb.Update("courses").
			Set("current_enrollment", squirrel.Expr("GREATEST(current_enrollment - 1, 0)")).
			Where(squirrel.Eq{"id": courseID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build seat release query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error releasing seat: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if drifted {
		return apperrors.NewInconsistencyError("roster entry missing on "+string(status), studentID, courseID)
	}
	return nil
}

// CountActive counts enrollment records with status enrolled
func (r *LedgerRepository) CountActive(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("enrollments").
		Where(squirrel.Eq{"status": models.StatusEnrolled}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count enrollments query: %w", err)
	}
	var n int64
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Msg("Error counting active enrollments")
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}

// RecentRegistrations lists the newest active enrollments
func (r *LedgerRepository) RecentRegistrations(ctx context.Context, limit int) ([]models.RegistrationEvent, error) {
	sql, args, err := r.sb.Select("u.name", "COALESCE(u.student_id, '')", "c.course_code", "c.title", "e.enrolled_at").
		From("enrollments e").
		Join("users u ON u.id = e.user_id").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"e.status": models.StatusEnrolled}).
		OrderBy("e.enrolled_at DESC", "e.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building recent registrations SQL")
		return nil, fmt.Errorf("failed to build recent registrations query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing recent registrations query")
		return nil, fmt.Errorf("failed to query recent registrations: %w", err)
	}
	defer rows.Close()

	events := []models.RegistrationEvent{}
	for rows.Next() {
		var ev models.RegistrationEvent
		if err := rows.Scan(&ev.StudentName, &ev.StudentNumber, &ev.CourseCode, &ev.CourseTitle, &ev.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
