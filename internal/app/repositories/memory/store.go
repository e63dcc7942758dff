// Package memory implements the repository interfaces on an in-process store.
// It backs the "memory" database driver and serves as the test double for
// services and controllers.
package memory

import (
	"sync"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
)

// Store holds users and courses behind a single mutex. Every ledger unit of
// work runs with the lock held, so both sides change together.
//
// Stored enrollments point at the stored course; nothing stored ever leaves
// the package without being copied.
type Store struct {
	mu sync.Mutex

	users   map[int64]*models.User
	courses map[int64]*models.Course

	nextUserID       int64
	nextCourseID     int64
	nextEnrollmentID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   make(map[int64]*models.User),
		courses: make(map[int64]*models.Course),
	}
}

// NewRepositories returns the repository container backed by s
func NewRepositories(s *Store) *repositories.Repositories {
	return &repositories.Repositories{
		Users:   &UserRepository{s: s},
		Courses: &CourseRepository{s: s},
		Ledger:  &LedgerRepository{s: s},
	}
}

// copyCourse returns a detached copy. The roster is copied only when withRoster
// is set, with student names resolved from the user table.
func (s *Store) copyCourse(c *models.Course, withRoster bool) *models.Course {
	if c == nil {
		return nil
	}
	out := *c
	out.Schedule.Days = append([]models.Weekday{}, c.Schedule.Days...)
	out.Prerequisites = append([]string{}, c.Prerequisites...)
	out.EnrolledStudents = nil
	if withRoster {
		out.EnrolledStudents = make([]models.RosterEntry, len(c.EnrolledStudents))
		for i, r := range c.EnrolledStudents {
			if u, ok := s.users[r.StudentID]; ok {
				r.StudentName = u.Name
				if u.StudentID != nil {
					r.StudentNumber = *u.StudentID
				}
			}
			out.EnrolledStudents[i] = r
		}
	}
	return &out
}

// copyUser returns a detached copy with every enrollment and its course
func (s *Store) copyUser(u *models.User, withEnrollments bool) *models.User {
	if u == nil {
		return nil
	}
	out := *u
	if u.StudentID != nil {
		sid := *u.StudentID
		out.StudentID = &sid
	}
	out.EnrolledCourses = []models.Enrollment{}
	if withEnrollments {
		for _, e := range u.EnrolledCourses {
			if e.DroppedAt != nil {
				at := *e.DroppedAt
				e.DroppedAt = &at
			}
			e.Course = s.copyCourse(s.courses[e.CourseID], false)
			out.EnrolledCourses = append(out.EnrolledCourses, e)
		}
	}
	return &out
}
