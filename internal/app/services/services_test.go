package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/recommend"
	"github.com/sparks-2204/course-recommendation-system/internal/app/registration"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories/memory"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var nop = zerolog.Nop()

type recordingAlerter struct {
	mu     sync.Mutex
	errs   []error
	extras []map[string]interface{}
}

func (a *recordingAlerter) Critical(err error, extras map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
	a.extras = append(a.extras, extras)
}

func (a *recordingAlerter) Close() {}

// driftingLedger reports every drop as a partial write
type driftingLedger struct {
	repositories.ILedgerRepository
}

func (l driftingLedger) Drop(ctx context.Context, studentID, courseID int64, at time.Time) error {
	if err := l.ILedgerRepository.Drop(ctx, studentID, courseID, at); err != nil {
		return err
	}
	return apperrors.NewInconsistencyError("roster entry missing", studentID, courseID)
}

func newRepos() *repositories.Repositories {
	return memory.NewRepositories(memory.NewStore())
}

func addUser(t *testing.T, repos *repositories.Repositories, n int, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:  fmt.Sprintf("User %d", n),
		Email: fmt.Sprintf("user%d@university.edu", n),
		Role:  role,
		Major: "Computer Science",
		Year:  models.YearFreshman,
		GPA:   3.2,
	}
	if role == models.RoleStudent {
		sid := fmt.Sprintf("STU%06d", n)
		u.StudentID = &sid
	}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func newCourse(code string, capacity int, start, end string, days ...models.Weekday) *models.Course {
	if len(days) == 0 {
		days = []models.Weekday{models.Monday, models.Wednesday}
	}
	return &models.Course{
		CourseCode:    code,
		Title:         code + " title",
		Credits:       3,
		Department:    "Computer Science",
		Instructor:    "Dr. Smith",
		Schedule:      models.Schedule{Days: days, StartTime: start, EndTime: end},
		Semester:      models.SemesterFall,
		Year:          2024,
		MaxCapacity:   capacity,
		Prerequisites: []string{},
		Category:      models.CategoryCore,
		Level:         models.LevelUndergraduate,
	}
}

func addCourse(t *testing.T, repos *repositories.Repositories, c *models.Course) *models.Course {
	t.Helper()
	require.NoError(t, repos.Courses.Create(context.Background(), c))
	return c
}

func conflictReason(t *testing.T, err error) string {
	t.Helper()
	r, ok := apperrors.ConflictReason(err)
	require.True(t, ok, "expected conflict error, got %v", err)
	return r
}

func TestCourseService_Create(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *models.Course)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.Course) {}},
		{
			name:    "end before start",
			mutate:  func(c *models.Course) { c.Schedule.StartTime, c.Schedule.EndTime = "10:00", "09:00" },
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "equal times",
			mutate:  func(c *models.Course) { c.Schedule.EndTime = c.Schedule.StartTime },
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "own prerequisite",
			mutate:  func(c *models.Course) { c.Prerequisites = []string{"cs101"} },
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "zero capacity",
			mutate:  func(c *models.Course) { c.MaxCapacity = 0 },
			wantErr: apperrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCourseService(newRepos().Courses, nop)
			c := newCourse("cs101", 30, "09:00", "10:00")
			tt.mutate(c)

			err := svc.CreateCourse(context.Background(), c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CS101", c.CourseCode)
			assert.NotZero(t, c.ID)
		})
	}
}

func TestCourseService_DuplicateCodeTerm(t *testing.T) {
	ctx := context.Background()
	svc := NewCourseService(newRepos().Courses, nop)

	require.NoError(t, svc.CreateCourse(ctx, newCourse("CS101", 30, "09:00", "10:00")))
	err := svc.CreateCourse(ctx, newCourse("CS101", 30, "11:00", "12:00"))
	assert.ErrorIs(t, err, apperrors.ErrCourseAlreadyExists)

	spring := newCourse("CS101", 30, "09:00", "10:00")
	spring.Semester = models.SemesterSpring
	assert.NoError(t, svc.CreateCourse(ctx, spring))
}

func TestCourseService_UpdateKeepsLedger(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewCourseService(repos.Courses, nop)
	course := addCourse(t, repos, newCourse("CS101", 2, "09:00", "10:00"))
	s1 := addUser(t, repos, 1, models.RoleStudent)
	s2 := addUser(t, repos, 2, models.RoleStudent)

	_, err := repos.Ledger.Enroll(ctx, s1.ID, course.ID, time.Now())
	require.NoError(t, err)
	_, err = repos.Ledger.Enroll(ctx, s2.ID, course.ID, time.Now())
	require.NoError(t, err)

	shrink := newCourse("CS101", 1, "09:00", "10:00")
	_, err = svc.UpdateCourse(ctx, course.ID, shrink)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	update := newCourse("CS101", 5, "13:00", "14:00")
	update.Title = "Renamed"
	updated, err := svc.UpdateCourse(ctx, course.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 2, updated.CurrentEnrollment)
	assert.Len(t, updated.EnrolledStudents, 2)
}

func TestCourseService_DeleteHidesCourse(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewCourseService(repos.Courses, nop)
	course := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	_, err := svc.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	courses, total, err := svc.ListCourses(ctx, repositories.CourseFilter{}, helpers.NormalizePage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, courses)
}

func TestRegistrationService_RegisterAndDrop(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	alerter := &recordingAlerter{}
	svc := NewRegistrationService(repos.Users, repos.Ledger, alerter, nop)

	cs101 := addCourse(t, repos, newCourse("CS101", 1, "09:00", "10:00"))
	s1 := addUser(t, repos, 1, models.RoleStudent)
	s2 := addUser(t, repos, 2, models.RoleStudent)

	e, err := svc.Register(ctx, s1.ID, cs101.ID)
	require.NoError(t, err)
	assert.Equal(t, cs101.ID, e.CourseID)

	_, err = svc.Register(ctx, s2.ID, cs101.ID)
	assert.Equal(t, string(registration.ReasonFull), conflictReason(t, err))

	_, err = svc.Register(ctx, s1.ID, cs101.ID)
	assert.Equal(t, string(registration.ReasonAlreadyEnrolled), conflictReason(t, err))

	courses, err := svc.MyCourses(ctx, s1.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS101", courses[0].CourseCode)

	require.NoError(t, svc.Drop(ctx, s1.ID, cs101.ID))
	err = svc.Drop(ctx, s1.ID, cs101.ID)
	assert.Equal(t, string(registration.ReasonNotEnrolled), conflictReason(t, err))

	courses, err = svc.MyCourses(ctx, s1.ID)
	require.NoError(t, err)
	assert.Empty(t, courses)

	_, err = svc.Register(ctx, s2.ID, cs101.ID)
	assert.NoError(t, err)
	assert.Empty(t, alerter.errs)
}

func TestRegistrationService_UnknownCourse(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewRegistrationService(repos.Users, repos.Ledger, &recordingAlerter{}, nop)
	s1 := addUser(t, repos, 1, models.RoleStudent)

	_, err := svc.Register(ctx, s1.ID, 999)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestRegistrationService_DemotedStudent(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewRegistrationService(repos.Users, repos.Ledger, &recordingAlerter{}, nop)

	cs101 := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))
	math101 := addCourse(t, repos, newCourse("MATH101", 30, "10:00", "11:00"))
	student := addUser(t, repos, 1, models.RoleStudent)

	_, err := svc.Register(ctx, student.ID, cs101.ID)
	require.NoError(t, err)

	require.NoError(t, repos.Users.UpdateRole(ctx, student.ID, models.RoleFaculty))

	_, err = svc.Register(ctx, student.ID, math101.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.ErrorIs(t, svc.Drop(ctx, student.ID, cs101.ID), apperrors.ErrStudentNotFound)

	course, err := repos.Courses.GetByID(ctx, math101.ID)
	require.NoError(t, err)
	assert.Zero(t, course.CurrentEnrollment)
	course, err = repos.Courses.GetByID(ctx, cs101.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, course.CurrentEnrollment)
}

func TestRegistrationService_AdminPaths(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewRegistrationService(repos.Users, repos.Ledger, &recordingAlerter{}, nop)

	cs101 := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))
	cs201 := newCourse("CS201", 30, "11:00", "12:30", models.Tuesday, models.Thursday)
	cs201.Prerequisites = []string{"CS101"}
	addCourse(t, repos, cs201)
	student := addUser(t, repos, 1, models.RoleStudent)
	faculty := addUser(t, repos, 2, models.RoleFaculty)

	_, err := svc.AssignCourse(ctx, faculty.ID, cs101.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	_, err = svc.AssignCourse(ctx, 999, cs101.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = svc.AssignCourse(ctx, student.ID, cs201.ID)
	assert.Equal(t, string(registration.ReasonPrerequisites), conflictReason(t, err))

	_, err = svc.AssignCourse(ctx, student.ID, cs101.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, student.ID, cs101.ID))

	course, err := repos.Courses.GetByID(ctx, cs101.ID)
	require.NoError(t, err)
	assert.Zero(t, course.CurrentEnrollment)
	assert.Empty(t, course.EnrolledStudents)

	_, err = svc.AssignCourse(ctx, student.ID, cs201.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCourse(ctx, student.ID, cs201.ID))
	err = svc.RemoveCourse(ctx, student.ID, cs201.ID)
	assert.Equal(t, string(registration.ReasonNotEnrolled), conflictReason(t, err))
}

func TestRegistrationService_InconsistencyRaisesAlert(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	alerter := &recordingAlerter{}
	svc := NewRegistrationService(repos.Users, driftingLedger{repos.Ledger}, alerter, nop)

	course := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))
	student := addUser(t, repos, 1, models.RoleStudent)

	_, err := svc.Register(ctx, student.ID, course.ID)
	require.NoError(t, err)

	err = svc.Drop(ctx, student.ID, course.ID)
	require.ErrorIs(t, err, apperrors.ErrLedgerInconsistent)

	require.Len(t, alerter.errs, 1)
	assert.True(t, errors.Is(alerter.errs[0], apperrors.ErrLedgerInconsistent))
	assert.Equal(t, "drop", alerter.extras[0]["operation"])
	assert.Equal(t, student.ID, alerter.extras[0]["studentId"])
}

func TestRecommendationService(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewRecommendationService(repos.Users, repos.Courses, nop)

	cs101 := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))
	math := newCourse("MATH101", 30, "09:30", "10:30", models.Wednesday, models.Friday)
	math.Department = "Mathematics"
	addCourse(t, repos, math)
	eng := newCourse("ENG101", 30, "13:00", "14:30")
	eng.Department = "English"
	addCourse(t, repos, eng)

	student := addUser(t, repos, 1, models.RoleStudent)
	faculty := addUser(t, repos, 2, models.RoleFaculty)

	_, err := repos.Ledger.Enroll(ctx, student.ID, cs101.ID, time.Now())
	require.NoError(t, err)

	t.Run("recommend skips enrolled courses", func(t *testing.T) {
		resp, err := svc.Recommend(ctx, student.ID, 0)
		require.NoError(t, err)
		require.Len(t, resp.Recommendations, 2)
		for _, r := range resp.Recommendations {
			assert.NotEqual(t, "CS101", r.Course.CourseCode)
		}
		assert.Equal(t, 3, resp.StudentProfile.EnrolledCredits)
	})

	t.Run("optimize flags conflicts", func(t *testing.T) {
		resp, err := svc.OptimizeSchedule(ctx, student.ID, []int64{math.ID, eng.ID})
		require.NoError(t, err)
		require.Len(t, resp.Analysis, 2)
		assert.Equal(t, 3, resp.CurrentCredits)

		byCode := map[string]recommend.ScheduleFit{}
		for _, f := range resp.Analysis {
			byCode[f.Course.CourseCode] = f
		}
		assert.True(t, byCode["MATH101"].HasConflicts)
		assert.Equal(t, []string{"CS101"}, byCode["MATH101"].Conflicts)
		assert.False(t, byCode["ENG101"].HasConflicts)
	})

	t.Run("load analysis", func(t *testing.T) {
		a, err := svc.AnalyzeLoad(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, a.TotalCredits)
		assert.Equal(t, recommend.LoadUnderloaded, a.LoadStatus)
	})

	t.Run("non-student", func(t *testing.T) {
		_, err := svc.AnalyzeLoad(ctx, faculty.ID)
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
		_, err = svc.Recommend(ctx, 999, 5)
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("demand forecast", func(t *testing.T) {
		forecast, err := svc.ForecastDemand(ctx)
		require.NoError(t, err)
		assert.Len(t, forecast, 3)
	})
}

func TestAnalyticsService(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewAnalyticsService(repos, nop)

	cs101 := addCourse(t, repos, newCourse("CS101", 30, "09:00", "10:00"))
	addCourse(t, repos, newCourse("ENG101", 30, "13:00", "14:30"))
	s1 := addUser(t, repos, 1, models.RoleStudent)
	s2 := addUser(t, repos, 2, models.RoleStudent)
	addUser(t, repos, 3, models.RoleFaculty)
	addUser(t, repos, 4, models.RoleAdmin)

	for _, s := range []*models.User{s1, s2} {
		_, err := repos.Ledger.Enroll(ctx, s.ID, cs101.ID, time.Now().UTC())
		require.NoError(t, err)
	}

	t.Run("system stats", func(t *testing.T) {
		stats, err := svc.SystemStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.TotalUsers)
		assert.Equal(t, int64(2), stats.TotalStudents)
		assert.Equal(t, int64(1), stats.TotalFaculty)
		assert.Equal(t, int64(2), stats.TotalCourses)
		assert.Equal(t, int64(2), stats.TotalEnrollments)
		require.NotEmpty(t, stats.PopularCourses)
		assert.Equal(t, "CS101", stats.PopularCourses[0].CourseCode)
		assert.Len(t, stats.RecentRegistrations, 2)
	})

	t.Run("faculty stats", func(t *testing.T) {
		stats, err := svc.FacultyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalStudents)
		assert.Equal(t, int64(2), stats.TotalCourses)
		counts := map[string]int{}
		for _, d := range stats.EnrollmentData {
			counts[d.CourseCode] = d.EnrollmentCount
		}
		assert.Equal(t, map[string]int{"CS101": 2, "ENG101": 0}, counts)
	})

	t.Run("audit is clean", func(t *testing.T) {
		rec, err := svc.Audit(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Checked)
		assert.Zero(t, rec.Drifted)
	})

	t.Run("anomalies", func(t *testing.T) {
		report, err := svc.DetectAnomalies(ctx, "bogus")
		require.NoError(t, err)
		assert.Equal(t, "weekly", report.Timeframe)
		assert.False(t, report.Anomalies.CapacityAnomalies.Detected)
	})
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := NewUserService(repos.Users, nop)
	admin := addUser(t, repos, 1, models.RoleAdmin)
	student := addUser(t, repos, 2, models.RoleStudent)

	_, err := svc.UpdateRole(ctx, admin.ID, admin.ID, models.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.UpdateRole(ctx, admin.ID, student.ID, models.Role("dean"))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.UpdateRole(ctx, admin.ID, 999, models.RoleFaculty)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	updated, err := svc.UpdateRole(ctx, admin.ID, student.ID, models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, updated.Role)

	students, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	users, total, err := svc.ListUsers(ctx, repositories.UserFilter{Role: models.RoleFaculty}, helpers.NormalizePage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, student.ID, users[0].ID)
}

func newAuthService(repos *repositories.Repositories) AuthService {
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	return NewAuthService(repos.Users, jwt, nop)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := newAuthService(repos)

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "Jane Doe",
		Email:    "Jane@University.edu",
		Password: "secret1",
		Year:     "Sophomore",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, "jane@university.edu", resp.User.Email)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	require.NotNil(t, resp.User.StudentID)
	assert.Regexp(t, `^STU\d{6}$`, *resp.User.StudentID)
	assert.Equal(t, models.YearSophomore, resp.User.Year)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Name: "Dup", Email: "jane@university.edu", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Name: "Root", Email: "root@university.edu", Password: "secret1", Role: "admin"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "JANE@university.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "jane@university.edu", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@university.edu", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_StudentIDCollision(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := newAuthService(repos).(*authServiceImpl)
	svc.studentNumber = func() int { return 42 }

	_, err := svc.Register(ctx, &dto.RegisterRequest{Name: "A", Email: "a@university.edu", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Name: "B", Email: "b@university.edu", Password: "secret1"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Name: "C", Email: "c@university.edu", Password: "secret1", StudentID: "STU000042"})
	assert.ErrorIs(t, err, apperrors.ErrStudentIDExists)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	svc := newAuthService(repos)
	u := addUser(t, repos, 1, models.RoleStudent)

	major := "Mathematics"
	year := "Junior"
	gpa := 3.9
	updated, err := svc.UpdateProfile(ctx, u.ID, &dto.UpdateProfileRequest{Major: &major, Year: &year, GPA: &gpa})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", updated.Major)
	assert.Equal(t, models.YearJunior, updated.Year)
	assert.Equal(t, 3.9, updated.GPA)
	assert.Equal(t, u.Name, updated.Name)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", me.Major)
}
