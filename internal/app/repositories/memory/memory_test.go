package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/registration"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

var t0 = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

func addStudent(t *testing.T, repos *repositories.Repositories, n int) *models.User {
	t.Helper()
	sid := fmt.Sprintf("STU%06d", n)
	u := &models.User{
		Name:      fmt.Sprintf("Student %d", n),
		Email:     fmt.Sprintf("student%d@university.edu", n),
		Role:      models.RoleStudent,
		StudentID: &sid,
		Major:     "Computer Science",
		Year:      models.YearFreshman,
	}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func addCourse(t *testing.T, repos *repositories.Repositories, code string, capacity int, days ...models.Weekday) *models.Course {
	t.Helper()
	if len(days) == 0 {
		days = []models.Weekday{models.Monday, models.Wednesday}
	}
	c := &models.Course{
		CourseCode:  code,
		Title:       code + " title",
		Credits:     3,
		Department:  "Computer Science",
		Instructor:  "Dr. Smith",
		Schedule:    models.Schedule{Days: days, StartTime: "09:00", EndTime: "10:00"},
		Semester:    models.SemesterFall,
		Year:        2024,
		MaxCapacity: capacity,
	}
	require.NoError(t, repos.Courses.Create(context.Background(), c))
	return c
}

func reason(t *testing.T, err error) string {
	t.Helper()
	r, ok := apperrors.ConflictReason(err)
	require.True(t, ok, "expected conflict error, got %v", err)
	return r
}

func TestLedger_CapacityOneLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	course := addCourse(t, repos, "CS101", 1)
	s1 := addStudent(t, repos, 1)
	s2 := addStudent(t, repos, 2)

	e, err := repos.Ledger.Enroll(ctx, s1.ID, course.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnrolled, e.Status)
	assert.Equal(t, "CS101", e.Course.CourseCode)

	_, err = repos.Ledger.Enroll(ctx, s2.ID, course.ID, t0)
	assert.Equal(t, string(registration.ReasonFull), reason(t, err))

	_, err = repos.Ledger.Enroll(ctx, s1.ID, course.ID, t0)
	assert.Equal(t, string(registration.ReasonAlreadyEnrolled), reason(t, err))

	require.NoError(t, repos.Ledger.Drop(ctx, s1.ID, course.ID, t0.Add(time.Hour)))

	err = repos.Ledger.Drop(ctx, s1.ID, course.ID, t0.Add(time.Hour))
	assert.Equal(t, string(registration.ReasonNotEnrolled), reason(t, err))

	_, err = repos.Ledger.Enroll(ctx, s1.ID, course.ID, t0.Add(2*time.Hour))
	require.NoError(t, err)

	got, err := repos.Users.GetByID(ctx, s1.ID)
	require.NoError(t, err)
	require.Len(t, got.EnrolledCourses, 2)
	assert.Equal(t, models.StatusDropped, got.EnrolledCourses[0].Status)
	require.NotNil(t, got.EnrolledCourses[0].DroppedAt)
	assert.Equal(t, models.StatusEnrolled, got.EnrolledCourses[1].Status)

	c, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CurrentEnrollment)
	require.Len(t, c.EnrolledStudents, 1)
	assert.Equal(t, "Student 1", c.EnrolledStudents[0].StudentName)
	assert.Equal(t, "STU000001", c.EnrolledStudents[0].StudentNumber)
}

func TestLedger_UnknownParties(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	course := addCourse(t, repos, "CS101", 5)
	s := addStudent(t, repos, 1)

	_, err := repos.Ledger.Enroll(ctx, 999, course.ID, t0)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	faculty := addStudent(t, repos, 2)
	require.NoError(t, repos.Users.UpdateRole(ctx, faculty.ID, models.RoleFaculty))
	_, err = repos.Ledger.Enroll(ctx, faculty.ID, course.ID, t0)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.ErrorIs(t, repos.Ledger.Drop(ctx, faculty.ID, course.ID, t0), apperrors.ErrStudentNotFound)

	_, err = repos.Ledger.Enroll(ctx, s.ID, 999, t0)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	require.NoError(t, repos.Courses.Deactivate(ctx, course.ID))
	_, err = repos.Ledger.Enroll(ctx, s.ID, course.ID, t0)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestLedger_ConcurrentRegistrationsNeverOverfill(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	course := addCourse(t, repos, "CS101", 10)

	students := make([]*models.User, 40)
	for i := range students {
		students[i] = addStudent(t, repos, i+1)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for _, s := range students {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := repos.Ledger.Enroll(ctx, id, course.ID, t0)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if r, ok := apperrors.ConflictReason(err); ok && r == string(registration.ReasonFull) {
				full++
			}
		}(s.ID)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 30, full)

	c, err := repos.Courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, c.CurrentEnrollment)
	assert.Len(t, c.EnrolledStudents, 10)

	active, err := repos.Ledger.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), active)
}

func TestLedger_DriftIsReported(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := NewRepositories(store)
	course := addCourse(t, repos, "CS101", 5)
	s := addStudent(t, repos, 1)

	t.Run("stale roster entry on register", func(t *testing.T) {
		store.courses[course.ID].EnrolledStudents = append(store.courses[course.ID].EnrolledStudents,
			models.RosterEntry{StudentID: s.ID, EnrolledAt: t0.Add(-time.Hour)})

		e, err := repos.Ledger.Enroll(ctx, s.ID, course.ID, t0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrLedgerInconsistent))
		require.NotNil(t, e)

		c, err := repos.Courses.GetByID(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, c.EnrolledStudents, 1)
		assert.Equal(t, t0, c.EnrolledStudents[0].EnrolledAt)
	})

	t.Run("missing roster entry on drop", func(t *testing.T) {
		store.courses[course.ID].EnrolledStudents = nil

		err := repos.Ledger.Drop(ctx, s.ID, course.ID, t0.Add(time.Hour))
		assert.True(t, errors.Is(err, apperrors.ErrLedgerInconsistent))

		u, err := repos.Users.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDropped, u.EnrolledCourses[0].Status)
	})
}

func TestLedger_CompleteSatisfiesPrerequisite(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	intro := addCourse(t, repos, "CS101", 5)
	next := addCourse(t, repos, "CS201", 5, models.Tuesday)
	require.NoError(t, func() error {
		next.Prerequisites = []string{"CS101"}
		return repos.Courses.Update(ctx, next)
	}())
	s := addStudent(t, repos, 1)

	_, err := repos.Ledger.Enroll(ctx, s.ID, next.ID, t0)
	assert.Equal(t, string(registration.ReasonPrerequisites), reason(t, err))

	_, err = repos.Ledger.Enroll(ctx, s.ID, intro.ID, t0)
	require.NoError(t, err)
	require.NoError(t, repos.Ledger.Complete(ctx, s.ID, intro.ID, t0.Add(time.Hour)))

	_, err = repos.Ledger.Enroll(ctx, s.ID, next.ID, t0.Add(2*time.Hour))
	require.NoError(t, err)

	c, err := repos.Courses.GetByID(ctx, intro.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.CurrentEnrollment)
	assert.Empty(t, c.EnrolledStudents)
}

func TestRecentRegistrations(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	a := addCourse(t, repos, "CS101", 5)
	b := addCourse(t, repos, "MATH101", 5, models.Friday)
	s := addStudent(t, repos, 1)

	_, err := repos.Ledger.Enroll(ctx, s.ID, a.ID, t0)
	require.NoError(t, err)
	_, err = repos.Ledger.Enroll(ctx, s.ID, b.ID, t0.Add(time.Minute))
	require.NoError(t, err)

	events, err := repos.Ledger.RecentRegistrations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "MATH101", events[0].CourseCode)
	assert.Equal(t, "STU000001", events[0].StudentNumber)

	events, err = repos.Ledger.RecentRegistrations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	s := addStudent(t, repos, 1)

	dup := &models.User{Name: "Dup", Email: s.Email, Role: models.RoleStudent}
	assert.ErrorIs(t, repos.Users.Create(ctx, dup), apperrors.ErrEmailAlreadyExists)

	sid := *s.StudentID
	dup = &models.User{Name: "Dup", Email: "other@university.edu", Role: models.RoleStudent, StudentID: &sid}
	assert.ErrorIs(t, repos.Users.Create(ctx, dup), apperrors.ErrStudentIDExists)

	got, err := repos.Users.GetByEmail(ctx, "  STUDENT1@university.edu ")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	got.Name = "Changed"
	again, err := repos.Users.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Student 1", again.Name)

	require.NoError(t, repos.Users.UpdateRole(ctx, s.ID, models.RoleFaculty))
	counts, err := repos.Users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.RoleFaculty])

	addStudent(t, repos, 2)
	addStudent(t, repos, 3)
	users, total, err := repos.Users.List(ctx, repositories.UserFilter{Role: models.RoleStudent}, helpers.NormalizePage(1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 1)

	found, err := repos.Users.ListWithEnrollments(ctx, repositories.UserFilter{Search: "stu000003"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Student 3", found[0].Name)
}

func TestCourseRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	c := addCourse(t, repos, "CS101", 2)
	s := addStudent(t, repos, 1)
	_, err := repos.Ledger.Enroll(ctx, s.ID, c.ID, t0)
	require.NoError(t, err)

	dup := &models.Course{CourseCode: "CS101", Semester: models.SemesterFall, Year: 2024, MaxCapacity: 10}
	assert.ErrorIs(t, repos.Courses.Create(ctx, dup), apperrors.ErrCourseAlreadyExists)

	update := *c
	update.Title = "Intro to CS"
	update.CurrentEnrollment = 0
	require.NoError(t, repos.Courses.Update(ctx, &update))

	got, err := repos.Courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to CS", got.Title)
	assert.Equal(t, 1, got.CurrentEnrollment)
	assert.Len(t, got.EnrolledStudents, 1)

	u, err := repos.Users.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to CS", u.EnrolledCourses[0].Course.Title)

	exists, err := repos.Courses.ExistsByCodeTerm(ctx, "CS101", models.SemesterFall, 2024, c.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	addCourse(t, repos, "MATH101", 5, models.Friday)
	require.NoError(t, repos.Courses.Deactivate(ctx, c.ID))

	list, total, err := repos.Courses.List(ctx, repositories.CourseFilter{}, helpers.NormalizePage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "MATH101", list[0].CourseCode)

	all, err := repos.Courses.ListWithRosters(ctx, repositories.CourseFilter{IncludeInactive: true, Search: "intro"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].EnrolledStudents, 1)

	active, err := repos.Courses.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}
