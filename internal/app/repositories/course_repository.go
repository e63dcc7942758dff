package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/db"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/dberrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
)

// CourseFilter narrows course listings. Zero values are ignored.
type CourseFilter struct {
	Department string
	Semester   models.Semester
	Year       int
	Search     string
	Instructor string
	// IncludeInactive lists soft-deleted courses too
	IncludeInactive bool
}

// ICourseRepository defines the interface for course catalog operations.
// Ledger columns (current_enrollment, roster) are only written by ILedgerRepository.
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, filter CourseFilter, page helpers.Page) ([]*models.Course, int64, error)
	// ListWithRosters returns every matching course with its roster populated
	ListWithRosters(ctx context.Context, filter CourseFilter) ([]*models.Course, error)
	ExistsByCodeTerm(ctx context.Context, code string, semester models.Semester, year int, excludeID int64) (bool, error)
	CountActive(ctx context.Context) (int64, error)
	MostPopular(ctx context.Context, limit int) ([]*models.Course, error)
}

var courseColumns = []string{
	"c.id", "c.course_code", "c.title", "c.description", "c.credits", "c.department", "c.instructor",
	"c.schedule_days", "c.start_time", "c.end_time", "c.room",
	"c.semester", "c.year", "c.max_capacity", "c.current_enrollment", "c.prerequisites",
	"c.category", "c.level", "c.difficulty", "c.is_active", "c.created_at", "c.updated_at",
}

// scanCourse scans courseColumns, preceded by any lead destinations
func scanCourse(row pgx.Row, lead ...any) (*models.Course, error) {
	var c models.Course
	var days []string
	dest := append(lead,
		&c.ID, &c.CourseCode, &c.Title, &c.Description, &c.Credits, &c.Department, &c.Instructor,
		&days, &c.Schedule.StartTime, &c.Schedule.EndTime, &c.Schedule.Room,
		&c.Semester, &c.Year, &c.MaxCapacity, &c.CurrentEnrollment, &c.Prerequisites,
		&c.Category, &c.Level, &c.Difficulty, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Schedule.Days = toWeekdays(days)
	if c.Prerequisites == nil {
		c.Prerequisites = []string{}
	}
	return &c, nil
}

func toWeekdays(days []string) []models.Weekday {
	out := make([]models.Weekday, len(days))
	for i, d := range days {
		out[i] = models.Weekday(d)
	}
	return out
}

func fromWeekdays(days []models.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CourseRepository handles course database operations
type CourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a course with an empty roster
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	sql, args, err := r.sb.Insert("courses").
		Columns(
			"course_code", "title", "description", "credits", "department", "instructor",
			"schedule_days", "start_time", "end_time", "room",
			"semester", "year", "max_capacity", "current_enrollment", "prerequisites",
			"category", "level", "difficulty", "is_active", "created_at", "updated_at",
		).
		Values(
			course.CourseCode, course.Title, course.Description, course.Credits, course.Department, course.Instructor,
			fromWeekdays(course.Schedule.Days), course.Schedule.StartTime, course.Schedule.EndTime, course.Schedule.Room,
			course.Semester, course.Year, course.MaxCapacity, 0, nonNil(course.Prerequisites),
			course.Category, course.Level, course.Difficulty, true, now, now,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&course.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_term_key") {
			return apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Str("courseCode", course.CourseCode).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}

	course.CurrentEnrollment = 0
	course.IsActive = true
	course.CreatedAt, course.UpdatedAt = now, now
	course.EnrolledStudents = []models.RosterEntry{}
	return nil
}

// GetByID retrieves a course with its roster
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get course SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	if err := r.attachRosters(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// GetByIDs retrieves the listed courses without rosters, in id order
func (r *CourseRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": ids}).
		OrderBy("c.id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get courses by ids SQL")
		return nil, fmt.Errorf("failed to build get courses query: %w", err)
	}
	return r.queryCourses(ctx, sql, args)
}

// Update writes the catalog fields of a course. The seat counter is left alone.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"course_code":   course.CourseCode,
			"title":         course.Title,
			"description":   course.Description,
			"credits":       course.Credits,
			"department":    course.Department,
			"instructor":    course.Instructor,
			"schedule_days": fromWeekdays(course.Schedule.Days),
			"start_time":    course.Schedule.StartTime,
			"end_time":      course.Schedule.EndTime,
			"room":          course.Schedule.Room,
			"semester":      course.Semester,
			"year":          course.Year,
			"max_capacity":  course.MaxCapacity,
			"prerequisites": nonNil(course.Prerequisites),
			"category":      course.Category,
			"level":         course.Level,
			"difficulty":    course.Difficulty,
			"is_active":     course.IsActive,
			"updated_at":    course.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update course SQL")
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_term_key") {
			return apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Deactivate soft-deletes a course
func (r *CourseRepository) Deactivate(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("courses").
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building deactivate course SQL")
		return fmt.Errorf("failed to build deactivate course query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing deactivate course query")
		return fmt.Errorf("error deactivating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) where(filter CourseFilter) squirrel.And {
	cond := squirrel.And{}
	if !filter.IncludeInactive {
		cond = append(cond, squirrel.Eq{"c.is_active": true})
	}
	if filter.Department != "" {
		cond = append(cond, squirrel.Eq{"c.department": filter.Department})
	}
	if filter.Semester != "" {
		cond = append(cond, squirrel.Eq{"c.semester": filter.Semester})
	}
	if filter.Year > 0 {
		cond = append(cond, squirrel.Eq{"c.year": filter.Year})
	}
	if filter.Instructor != "" {
		cond = append(cond, squirrel.Eq{"c.instructor": filter.Instructor})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		cond = append(cond, squirrel.Or{
			squirrel.ILike{"c.title": pattern},
			squirrel.ILike{"c.course_code": pattern},
			squirrel.ILike{"c.description": pattern},
			squirrel.ILike{"c.instructor": pattern},
		})
	}
	return cond
}

// List returns one page of courses ordered by code, without rosters
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter, page helpers.Page) ([]*models.Course, int64, error) {
	cond := r.where(filter)

	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("courses c").Where(cond).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count courses SQL")
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count courses query")
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}
	if total == 0 {
		return []*models.Course{}, 0, nil
	}

	offset, limit := page.OffsetLimit()
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(cond).
		OrderBy("c.course_code ASC", "c.year DESC", "c.semester ASC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list courses SQL")
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	courses, err := r.queryCourses(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// ListWithRosters returns all matching courses ordered by code with rosters attached
func (r *CourseRepository) ListWithRosters(ctx context.Context, filter CourseFilter) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(r.where(filter)).
		OrderBy("c.course_code ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list courses with rosters SQL")
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	courses, err := r.queryCourses(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if err := r.attachRosters(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ExistsByCodeTerm reports whether another course already uses code in the given term
func (r *CourseRepository) ExistsByCodeTerm(ctx context.Context, code string, semester models.Semester, year int, excludeID int64) (bool, error) {
	inner := r.sb.Select("1").From("courses").
		Where(squirrel.Eq{"course_code": code, "semester": semester, "year": year}).
		Where(squirrel.NotEq{"id": excludeID})
	sql, args, err := r.sb.Select().Column(squirrel.Expr("EXISTS(?)", inner)).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building course exists SQL")
		return false, fmt.Errorf("failed to build course exists query: %w", err)
	}

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking course code: %w", err)
	}
	return exists, nil
}

// CountActive counts courses that are open for registration
func (r *CourseRepository) CountActive(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("courses").Where(squirrel.Eq{"is_active": true}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var n int64
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return n, nil
}

// MostPopular returns the active courses with the highest enrollment
func (r *CourseRepository) MostPopular(ctx context.Context, limit int) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.is_active": true}).
		OrderBy("c.current_enrollment DESC", "c.course_code ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building popular courses SQL")
		return nil, fmt.Errorf("failed to build popular courses query: %w", err)
	}
	return r.queryCourses(ctx, sql, args)
}

func (r *CourseRepository) queryCourses(ctx context.Context, sql string, args []interface{}) ([]*models.Course, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing course query")
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row")
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// attachRosters loads the course side of the ledger for every course in one query
func (r *CourseRepository) attachRosters(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Course, len(courses))
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		c.EnrolledStudents = []models.RosterEntry{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	sql, args, err := r.sb.Select("cr.course_id", "cr.user_id", "u.name", "COALESCE(u.student_id, '')", "cr.enrolled_at").
		From("course_roster cr").
		Join("users u ON u.id = cr.user_id").
		Where(squirrel.Eq{"cr.course_id": ids}).
		OrderBy("cr.enrolled_at ASC", "cr.user_id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building roster SQL")
		return fmt.Errorf("failed to build roster query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing roster query")
		return fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID int64
		var e models.RosterEntry
		if err := rows.Scan(&courseID, &e.StudentID, &e.StudentName, &e.StudentNumber, &e.EnrolledAt); err != nil {
			return fmt.Errorf("failed to scan roster row: %w", err)
		}
		if c, ok := byID[courseID]; ok {
			c.EnrolledStudents = append(c.EnrolledStudents, e)
		}
	}
	return rows.Err()
}
