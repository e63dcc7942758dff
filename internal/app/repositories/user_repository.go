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

// UserFilter narrows user listings. Zero values are ignored.
type UserFilter struct {
	Role   models.Role
	Search string
}

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByID returns the user with enrollments and their courses populated
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByEmail returns the user without enrollments
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error

	EmailExists(ctx context.Context, email string) (bool, error)
	StudentIDExists(ctx context.Context, studentID string) (bool, error)

	List(ctx context.Context, filter UserFilter, page helpers.Page) ([]*models.User, int64, error)
	// ListWithEnrollments returns every matching user with enrollments populated, ordered by name
	ListWithEnrollments(ctx context.Context, filter UserFilter) ([]*models.User, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

// rowQuerier is satisfied by both the pool and a transaction
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var userColumns = []string{
	"u.id", "u.name", "u.email", "u.password_hash", "u.role", "u.student_id",
	"u.gpa", "u.major", "u.academic_year", "u.created_at", "u.updated_at",
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.StudentID,
		&u.GPA, &u.Major, &u.Year, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.EnrolledCourses = []models.Enrollment{}
	return &u, nil
}

// UserRepository handles user database operations
type UserRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a user and sets its ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password_hash", "role", "student_id", "gpa", "major", "academic_year", "created_at", "updated_at").
		Values(user.Name, user.Email, user.Password, user.Role, user.StudentID, user.GPA, user.Major, user.Year, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&user.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
			return apperrors.ErrEmailAlreadyExists
		case dberrors.IsDuplicateConstraintError(err, "users_student_id_key"):
			return apperrors.ErrStudentIDExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}

	user.CreatedAt, user.UpdatedAt = now, now
	if user.EnrolledCourses == nil {
		user.EnrolledCourses = []models.Enrollment{}
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user with the student side of the ledger
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := r.getOne(ctx, squirrel.Eq{"u.id": id})
	if err != nil {
		return nil, err
	}
	if err := loadEnrollments(ctx, r.db.Pool, r.sb, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": strings.ToLower(strings.TrimSpace(email))})
}

// Update writes the profile fields of a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	sql, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"name":          user.Name,
			"email":         user.Email,
			"gpa":           user.GPA,
			"major":         user.Major,
			"academic_year": user.Year,
			"student_id":    user.StudentID,
			"updated_at":    user.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	sql, args, err := r.sb.Update("users").
		Set("role", role).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update role SQL")
		return fmt.Errorf("failed to build update role query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing update role query")
		return fmt.Errorf("error updating role: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) exists(ctx context.Context, where squirrel.Eq) (bool, error) {
	inner := r.sb.Select("1").From("users").Where(where)
	sql, args, err := r.sb.Select().Column(squirrel.Expr("EXISTS(?)", inner)).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user: %w", err)
	}
	return exists, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// StudentIDExists checks if a student number is taken
func (r *UserRepository) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"student_id": studentID})
}

func userWhere(filter UserFilter) squirrel.And {
	cond := squirrel.And{}
	if filter.Role != "" {
		cond = append(cond, squirrel.Eq{"u.role": filter.Role})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		cond = append(cond, squirrel.Or{
			squirrel.ILike{"u.name": pattern},
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"u.student_id": pattern},
		})
	}
	return cond
}

// List returns one page of users ordered by creation time, newest first
func (r *UserRepository) List(ctx context.Context, filter UserFilter, page helpers.Page) ([]*models.User, int64, error) {
	cond := userWhere(filter)

	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("users u").Where(cond).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count users SQL")
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count users query")
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 {
		return []*models.User{}, 0, nil
	}

	offset, limit := page.OffsetLimit()
	sql, args, err := r.sb.Select(userColumns...).
		From("users u").
		Where(cond).
		OrderBy("u.created_at DESC", "u.id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	users, err := r.queryUsers(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListWithEnrollments returns all matching users ordered by name with enrollments attached
func (r *UserRepository) ListWithEnrollments(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users u").
		Where(userWhere(filter)).
		OrderBy("u.name ASC", "u.id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users with enrollments SQL")
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	users, err := r.queryUsers(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if err := loadEnrollments(ctx, r.db.Pool, r.sb, users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole counts users per role
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	sql, args, err := r.sb.Select("role", "COUNT(*)").From("users").GroupBy("role").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by role query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing count by role query")
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Role]int64)
	for rows.Next() {
		var role models.Role
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func (r *UserRepository) queryUsers(ctx context.Context, sql string, args []interface{}) ([]*models.User, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing user query")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user row")
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// loadEnrollments attaches every enrollment record, oldest first, with its course
func loadEnrollments(ctx context.Context, q rowQuerier, sb squirrel.StatementBuilderType, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[int64]*models.User, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		u.EnrolledCourses = []models.Enrollment{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	cols := append([]string{"e.id", "e.user_id", "e.course_id", "e.status", "e.enrolled_at", "e.dropped_at"}, courseColumns...)
	sql, args, err := sb.Select(cols...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"e.user_id": ids}).
		OrderBy("e.enrolled_at ASC", "e.id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building enrollments SQL")
		return fmt.Errorf("failed to build enrollments query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing enrollments query")
		return fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Enrollment
		var userID int64
		course, err := scanCourse(rows, &e.ID, &userID, &e.CourseID, &e.Status, &e.EnrolledAt, &e.DroppedAt)
		if err != nil {
			return fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		e.Course = course
		if u, ok := byID[userID]; ok {
			u.EnrolledCourses = append(u.EnrolledCourses, e)
		}
	}
	return rows.Err()
}
