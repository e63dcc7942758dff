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

// CourseRepository is the in-memory ICourseRepository
type CourseRepository struct {
	s *Store
}

var _ repositories.ICourseRepository = (*CourseRepository)(nil)

func (r *CourseRepository) codeTaken(code string, semester models.Semester, year int, excludeID int64) bool {
	for _, c := range r.s.courses {
		if c.ID != excludeID && c.CourseCode == code && c.Semester == semester && c.Year == year {
			return true
		}
	}
	return false
}

// Create inserts a course with an empty roster
func (r *CourseRepository) Create(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.codeTaken(course.CourseCode, course.Semester, course.Year, 0) {
		return apperrors.ErrCourseAlreadyExists
	}

	now := time.Now().UTC()
	r.s.nextCourseID++
	course.ID = r.s.nextCourseID
	course.CurrentEnrollment = 0
	course.IsActive = true
	course.CreatedAt, course.UpdatedAt = now, now
	course.EnrolledStudents = []models.RosterEntry{}
	if course.Prerequisites == nil {
		course.Prerequisites = []string{}
	}

	stored := r.s.copyCourse(course, false)
	stored.EnrolledStudents = []models.RosterEntry{}
	r.s.courses[stored.ID] = stored
	return nil
}

// GetByID retrieves a course with its roster
func (r *CourseRepository) GetByID(_ context.Context, id int64) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return r.s.copyCourse(c, true), nil
}

// GetByIDs retrieves the listed courses without rosters, in id order
func (r *CourseRepository) GetByIDs(_ context.Context, ids []int64) ([]*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Course{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if c, ok := r.s.courses[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, r.s.copyCourse(c, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update writes the catalog fields. The seat counter and roster are kept.
func (r *CourseRepository) Update(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.courses[course.ID]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	if r.codeTaken(course.CourseCode, course.Semester, course.Year, course.ID) {
		return apperrors.ErrCourseAlreadyExists
	}

	course.UpdatedAt = time.Now().UTC()
	updated := r.s.copyCourse(course, false)
	updated.CurrentEnrollment = stored.CurrentEnrollment
	updated.EnrolledStudents = stored.EnrolledStudents
	updated.CreatedAt = stored.CreatedAt
	// replace in place so enrollments keep pointing at the same course
	*stored = *updated
	return nil
}

// Deactivate soft-deletes a course
func (r *CourseRepository) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func matchCourse(c *models.Course, filter repositories.CourseFilter) bool {
	switch {
	case !filter.IncludeInactive && !c.IsActive:
		return false
	case filter.Department != "" && c.Department != filter.Department:
		return false
	case filter.Semester != "" && c.Semester != filter.Semester:
		return false
	case filter.Year > 0 && c.Year != filter.Year:
		return false
	case filter.Instructor != "" && c.Instructor != filter.Instructor:
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		return strings.Contains(strings.ToLower(c.Title), s) ||
			strings.Contains(strings.ToLower(c.CourseCode), s) ||
			strings.Contains(strings.ToLower(c.Description), s) ||
			strings.Contains(strings.ToLower(c.Instructor), s)
	}
	return true
}

// filtered returns matching stored courses ordered by code, newest year first
func (r *CourseRepository) filtered(filter repositories.CourseFilter) []*models.Course {
	out := []*models.Course{}
	for _, c := range r.s.courses {
		if matchCourse(c, filter) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		return a.ID < b.ID
	})
	return out
}

// List returns one page of courses without rosters
func (r *CourseRepository) List(_ context.Context, filter repositories.CourseFilter, page helpers.Page) ([]*models.Course, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := r.filtered(filter)
	start, end := page.SliceBounds(len(matched))
	courses := make([]*models.Course, 0, end-start)
	for _, c := range matched[start:end] {
		courses = append(courses, r.s.copyCourse(c, false))
	}
	return courses, int64(len(matched)), nil
}

// ListWithRosters returns every matching course with its roster
func (r *CourseRepository) ListWithRosters(_ context.Context, filter repositories.CourseFilter) ([]*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := r.filtered(filter)
	courses := make([]*models.Course, 0, len(matched))
	for _, c := range matched {
		courses = append(courses, r.s.copyCourse(c, true))
	}
	return courses, nil
}

// ExistsByCodeTerm reports whether another course already uses code in the term
func (r *CourseRepository) ExistsByCodeTerm(_ context.Context, code string, semester models.Semester, year int, excludeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.codeTaken(code, semester, year, excludeID), nil
}

// CountActive counts active courses
func (r *CourseRepository) CountActive(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, c := range r.s.courses {
		if c.IsActive {
			n++
		}
	}
	return n, nil
}

// MostPopular returns the active courses with the highest enrollment
func (r *CourseRepository) MostPopular(_ context.Context, limit int) ([]*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	active := []*models.Course{}
	for _, c := range r.s.courses {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CurrentEnrollment != active[j].CurrentEnrollment {
			return active[i].CurrentEnrollment > active[j].CurrentEnrollment
		}
		return active[i].CourseCode < active[j].CourseCode
	})
	if limit >= 0 && len(active) > limit {
		active = active[:limit]
	}

	out := make([]*models.Course, 0, len(active))
	for _, c := range active {
		out = append(out, r.s.copyCourse(c, false))
	}
	return out, nil
}
