package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

// UserRepository is the in-memory IUserRepository
type UserRepository struct {
	s *Store
}

var _ repositories.IUserRepository = (*UserRepository)(nil)

func (r *UserRepository) taken(email string, studentID *string, exceptID int64) error {
	for _, u := range r.s.users {
		if u.ID == exceptID {
			continue
		}
		if u.Email == email {
			return apperrors.ErrEmailAlreadyExists
		}
		if studentID != nil && u.StudentID != nil && *u.StudentID == *studentID {
			return apperrors.ErrStudentIDExists
		}
	}
	return nil
}

// Create inserts a user and sets its ID
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.taken(user.Email, user.StudentID, 0); err != nil {
		return err
	}

	now := time.Now().UTC()
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt, user.UpdatedAt = now, now
	user.EnrolledCourses = []models.Enrollment{}

	stored := r.s.copyUser(user, false)
	r.s.users[stored.ID] = stored
	return nil
}

// GetByID returns the user with enrollments
func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return r.s.copyUser(u, true), nil
}

// GetByEmail returns the user without enrollments
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.copyUser(u, false), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// Update writes the profile fields of a user
func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if err := r.taken(user.Email, user.StudentID, user.ID); err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC()
	stored.Name = user.Name
	stored.Email = user.Email
	stored.GPA = user.GPA
	stored.Major = user.Major
	stored.Year = user.Year
	if user.StudentID != nil {
		sid := *user.StudentID
		stored.StudentID = &sid
	} else {
		stored.StudentID = nil
	}
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(_ context.Context, id int64, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// StudentIDExists checks if a student number is taken
func (r *UserRepository) StudentIDExists(_ context.Context, studentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.StudentID != nil && *u.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func matchUser(u *models.User, filter repositories.UserFilter) bool {
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		sid := ""
		if u.StudentID != nil {
			sid = *u.StudentID
		}
		return strings.Contains(strings.ToLower(u.Name), s) ||
			strings.Contains(strings.ToLower(u.Email), s) ||
			strings.Contains(strings.ToLower(sid), s)
	}
	return true
}

func (r *UserRepository) filter(filter repositories.UserFilter) []*models.User {
	out := []*models.User{}
	for _, u := range r.s.users {
		if matchUser(u, filter) {
			out = append(out, u)
		}
	}
	return out
}

// List returns one page of users, newest first
func (r *UserRepository) List(_ context.Context, filter repositories.UserFilter, page helpers.Page) ([]*models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := r.filter(filter)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := page.SliceBounds(len(matched))
	users := make([]*models.User, 0, end-start)
	for _, u := range matched[start:end] {
		users = append(users, r.s.copyUser(u, false))
	}
	return users, int64(len(matched)), nil
}

// ListWithEnrollments returns all matching users ordered by name
func (r *UserRepository) ListWithEnrollments(_ context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := r.filter(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	users := make([]*models.User, 0, len(matched))
	for _, u := range matched {
		users = append(users, r.s.copyUser(u, true))
	}
	return users, nil
}

// CountByRole counts users per role
func (r *UserRepository) CountByRole(_ context.Context) (map[models.Role]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[models.Role]int64)
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}
