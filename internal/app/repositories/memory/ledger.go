package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/registration"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
)

// LedgerRepository is the in-memory ILedgerRepository. The store mutex is held
// for the whole check-then-write sequence.
type LedgerRepository struct {
	s *Store
}

var _ repositories.ILedgerRepository = (*LedgerRepository)(nil)

// Enroll registers a student for a course
func (r *LedgerRepository) Enroll(_ context.Context, studentID, courseID int64, at time.Time) (*models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	student, ok := r.s.users[studentID]
	if !ok || !student.IsStudent() {
		return nil, apperrors.ErrStudentNotFound
	}
	course := r.s.courses[courseID]
	if d := registration.CanRegister(student, course); !d.Allowed {
		return nil, d.Err()
	}

	listed := onRoster(course, studentID)
	registration.ApplyRegister(student, course, at)

	r.s.nextEnrollmentID++
	last := len(student.EnrolledCourses) - 1
	student.EnrolledCourses[last].ID = r.s.nextEnrollmentID

	e := student.EnrolledCourses[last]
	e.Course = r.s.copyCourse(course, false)

	if listed {
		// keep a single roster entry for the student, the one just written
		dedupeRoster(course, studentID)
		return &e, apperrors.NewInconsistencyError("roster already listed student on registration", studentID, courseID)
	}
	return &e, nil
}

// Drop marks the active enrollment dropped and removes the roster entry
func (r *LedgerRepository) Drop(_ context.Context, studentID, courseID int64, at time.Time) error {
	return r.leave(studentID, courseID, at, registration.ApplyDrop, "dropped")
}

// Complete marks the active enrollment completed and frees the seat
func (r *LedgerRepository) Complete(_ context.Context, studentID, courseID int64, at time.Time) error {
	return r.leave(studentID, courseID, at, registration.ApplyComplete, "completed")
}

func (r *LedgerRepository) leave(studentID, courseID int64, at time.Time,
	apply func(*models.User, *models.Course, time.Time) bool, action string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	student, ok := r.s.users[studentID]
	if !ok || !student.IsStudent() {
		return apperrors.ErrStudentNotFound
	}
	course := r.s.courses[courseID]
	if d := registration.CanDrop(student, course); !d.Allowed {
		return d.Err()
	}

	if found := apply(student, course, at); !found {
		return apperrors.NewInconsistencyError("roster entry missing on "+action, studentID, courseID)
	}
	return nil
}

// CountActive counts enrollment records with status enrolled
func (r *LedgerRepository) CountActive(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, u := range r.s.users {
		for _, e := range u.EnrolledCourses {
			if e.Status == models.StatusEnrolled {
				n++
			}
		}
	}
	return n, nil
}

// RecentRegistrations lists the newest active enrollments
func (r *LedgerRepository) RecentRegistrations(_ context.Context, limit int) ([]models.RegistrationEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type row struct {
		id int64
		ev models.RegistrationEvent
	}
	rows := []row{}
	for _, u := range r.s.users {
		for _, e := range u.EnrolledCourses {
			if e.Status != models.StatusEnrolled {
				continue
			}
			ev := models.RegistrationEvent{StudentName: u.Name, EnrolledAt: e.EnrolledAt}
			if u.StudentID != nil {
				ev.StudentNumber = *u.StudentID
			}
			if c, ok := r.s.courses[e.CourseID]; ok {
				ev.CourseCode = c.CourseCode
				ev.CourseTitle = c.Title
			}
			rows = append(rows, row{id: e.ID, ev: ev})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ev.EnrolledAt.Equal(rows[j].ev.EnrolledAt) {
			return rows[i].ev.EnrolledAt.After(rows[j].ev.EnrolledAt)
		}
		return rows[i].id > rows[j].id
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	events := make([]models.RegistrationEvent, 0, len(rows))
	for _, rw := range rows {
		events = append(events, rw.ev)
	}
	return events, nil
}

func onRoster(c *models.Course, studentID int64) bool {
	for _, r := range c.EnrolledStudents {
		if r.StudentID == studentID {
			return true
		}
	}
	return false
}

// dedupeRoster keeps only the last roster entry for studentID
func dedupeRoster(c *models.Course, studentID int64) {
	last := -1
	for i, r := range c.EnrolledStudents {
		if r.StudentID == studentID {
			last = i
		}
	}
	roster := c.EnrolledStudents[:0]
	for i, r := range c.EnrolledStudents {
		if r.StudentID != studentID || i == last {
			roster = append(roster, r)
		}
	}
	c.EnrolledStudents = roster
}
