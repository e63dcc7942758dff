package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparks-2204/course-recommendation-system/internal/app/audit"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/bootstrap"
	"github.com/sparks-2204/course-recommendation-system/internal/config"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/alerting"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *dto.ErrorDetail `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "test"
	cfg.Seed.AdminEmail = "admin@university.edu"
	cfg.Seed.AdminPassword = "admin123"
	cfg.Seed.SampleCourses = true

	lgr := zerolog.Nop()
	ctx := context.Background()

	storage, err := bootstrap.SetupStorage(ctx, cfg, lgr)
	require.NoError(t, err)
	bootstrap.SeedDefaults(ctx, cfg, storage.Repos, lgr)

	deps, err := bootstrap.BuildDependencies(cfg, storage, alerting.NewNop(lgr), lgr)
	require.NoError(t, err)

	router, err := bootstrap.SetupRouter(cfg, deps, lgr)
	require.NoError(t, err)

	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *apiClient) decode(env envelope, out interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, out))
}

func (a *apiClient) login(email, password string) (string, int64) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(a.t, http.StatusOK, status)
	var resp dto.AuthResponse
	a.decode(env, &resp)
	return resp.Token.AccessToken, resp.User.ID
}

func (a *apiClient) registerStudent(n int) (string, int64) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Name:     fmt.Sprintf("Student %d", n),
		Email:    fmt.Sprintf("student%d@university.edu", n),
		Password: "secret1",
		Major:    "Computer Science",
		Year:     "freshman",
	})
	require.Equal(a.t, http.StatusCreated, status, env.Error)
	var resp dto.AuthResponse
	a.decode(env, &resp)
	return resp.Token.AccessToken, resp.User.ID
}

func (a *apiClient) courseID(token, code string) int64 {
	a.t.Helper()
	status, env := a.do(http.MethodGet, "/courses?search="+code, token, nil)
	require.Equal(a.t, http.StatusOK, status)
	var list dto.CourseListResponse
	a.decode(env, &list)
	for _, c := range list.Courses {
		if c.CourseCode == code {
			return c.ID
		}
	}
	a.t.Fatalf("course %s not found", code)
	return 0
}

func TestAPI_Health(t *testing.T) {
	api := newAPI(t)
	status, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"storage":"memory"`)
}

func TestAPI_AuthFlow(t *testing.T) {
	api := newAPI(t)

	token, id := api.registerStudent(1)

	status, env := api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me dto.UserResponse
	api.decode(env, &me)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, models.RoleStudent, me.Role)

	status, env = api.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, dto.ErrorCodeUnauthorized, env.Error.Code)

	status, env = api.do(http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, dto.ErrorCodeInvalidToken, env.Error.Code)

	status, env = api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: "student1@university.edu", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, env.Error.Code)

	status, _ = api.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Name: "Root", Email: "root@university.edu", Password: "secret1", Role: "admin",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = api.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Name: "X", Email: "bad", Password: "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)

	name := "Renamed Student"
	status, env = api.do(http.MethodPut, "/auth/profile", token, dto.UpdateProfileRequest{Name: &name})
	require.Equal(t, http.StatusOK, status)
	api.decode(env, &me)
	assert.Equal(t, "Renamed Student", me.Name)
}

func TestAPI_RegistrationFlow(t *testing.T) {
	api := newAPI(t)
	token, _ := api.registerStudent(1)

	cs101 := api.courseID(token, "CS101")
	cs201 := api.courseID(token, "CS201")
	math101 := api.courseID(token, "MATH101")

	// CS201 requires CS101 completed
	status, env := api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", cs201), token, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, dto.ErrorCodePrerequisitesMissing, env.Error.Code)
	assert.Equal(t, "prerequisites not met", env.Error.Reason)
	assert.Contains(t, fmt.Sprint(env.Error.Details), "CS101")

	status, env = api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", cs101), token, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var reg dto.RegistrationResponse
	api.decode(env, &reg)
	assert.Equal(t, cs101, reg.Enrollment.CourseID)
	assert.Equal(t, models.StatusEnrolled, reg.Enrollment.Status)

	status, env = api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", cs101), token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already enrolled", env.Error.Reason)
	assert.Equal(t, dto.ErrorCodeAlreadyEnrolled, env.Error.Code)
	assert.Equal(t, "Already enrolled in this course", env.Error.Message)

	// MATH101 MWF 10:00-11:00 touches CS101 MWF 09:00-10:00 but does not overlap
	status, _ = api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", math101), token, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, env = api.do(http.MethodGet, "/courses/my-courses", token, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []models.Course
	api.decode(env, &mine)
	assert.Len(t, mine, 2)

	status, env = api.do(http.MethodGet, fmt.Sprintf("/courses/%d", cs101), token, nil)
	require.Equal(t, http.StatusOK, status)
	var course models.Course
	api.decode(env, &course)
	assert.Equal(t, 1, course.CurrentEnrollment)
	assert.Len(t, course.EnrolledStudents, 1)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/courses/%d/drop", cs101), token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodDelete, fmt.Sprintf("/courses/%d/drop", cs101), token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not enrolled", env.Error.Reason)

	status, env = api.do(http.MethodPost, "/courses/999/register", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", env.Error.Reason)

	status, _ = api.do(http.MethodPost, "/courses/abc/register", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_RecommendationsAndOptimization(t *testing.T) {
	api := newAPI(t)
	token, _ := api.registerStudent(1)

	cs101 := api.courseID(token, "CS101")
	eng101 := api.courseID(token, "ENG101")
	status, _ := api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", cs101), token, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := api.do(http.MethodGet, "/courses/recommendations?limit=3", token, nil)
	require.Equal(t, http.StatusOK, status)
	var recs dto.RecommendationsResponse
	api.decode(env, &recs)
	assert.Len(t, recs.Recommendations, 3)
	assert.Equal(t, 3, recs.StudentProfile.EnrolledCredits)

	status, env = api.do(http.MethodPost, "/courses/schedule-optimization", token, dto.ScheduleOptimizationRequest{CourseIDs: []int64{eng101}})
	require.Equal(t, http.StatusOK, status)
	var opt dto.ScheduleOptimizationResponse
	api.decode(env, &opt)
	require.Len(t, opt.Analysis, 1)
	assert.False(t, opt.Analysis[0].HasConflicts)

	status, _ = api.do(http.MethodPost, "/courses/schedule-optimization", token, dto.ScheduleOptimizationRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_RoleGuards(t *testing.T) {
	api := newAPI(t)
	studentToken, _ := api.registerStudent(1)

	for _, path := range []string{"/admin/stats", "/admin/users", "/faculty/students"} {
		status, env := api.do(http.MethodGet, path, studentToken, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
		assert.Equal(t, dto.ErrorCodeForbidden, env.Error.Code, path)
	}

	status, env := api.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Name: "Prof", Email: "prof@university.edu", Password: "secret1", Role: "faculty",
	})
	require.Equal(t, http.StatusCreated, status)
	var resp dto.AuthResponse
	api.decode(env, &resp)
	facultyToken := resp.Token.AccessToken

	status, _ = api.do(http.MethodGet, "/faculty/students", facultyToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/faculty/stats", facultyToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/courses/my-courses", facultyToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodGet, "/admin/audit", facultyToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_AdminFlow(t *testing.T) {
	api := newAPI(t)
	adminToken, adminID := api.login("admin@university.edu", "admin123")
	_, studentID := api.registerStudent(1)

	cs101 := api.courseID(adminToken, "CS101")
	cs201 := api.courseID(adminToken, "CS201")

	status, env := api.do(http.MethodPost, fmt.Sprintf("/admin/users/%d/assign-course", studentID), adminToken, dto.AssignCourseRequest{CourseID: cs201})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "prerequisites not met", env.Error.Reason)

	status, env = api.do(http.MethodPost, fmt.Sprintf("/admin/users/%d/assign-course", adminID), adminToken, dto.AssignCourseRequest{CourseID: cs101})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Student not found", env.Error.Message)

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/admin/users/%d/assign-course", studentID), adminToken, dto.AssignCourseRequest{CourseID: cs101})
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/admin/users/%d/complete-course/%d", studentID, cs101), adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/admin/users/%d/assign-course", studentID), adminToken, dto.AssignCourseRequest{CourseID: cs201})
	require.Equal(t, http.StatusCreated, status)

	status, env = api.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var stats dto.SystemStats
	api.decode(env, &stats)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(5), stats.TotalCourses)
	assert.Equal(t, int64(1), stats.TotalEnrollments)
	assert.Len(t, stats.RecentRegistrations, 1)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d/remove-course/%d", studentID, cs201), adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, env = api.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d/remove-course/%d", studentID, cs201), adminToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, dto.ErrorCodeNotEnrolled, env.Error.Code)

	status, env = api.do(http.MethodGet, "/admin/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"drifted":0`)

	status, _ = api.do(http.MethodGet, "/admin/anomalies?timeframe=daily", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/admin/anomalies?timeframe=yearly", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(http.MethodGet, "/admin/demand-forecast", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, fmt.Sprintf("/faculty/students/%d/load", studentID), adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/role", adminID), adminToken, dto.UpdateRoleRequest{Role: "student"})
	assert.Equal(t, http.StatusForbidden, status)
	status, env = api.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/role", studentID), adminToken, dto.UpdateRoleRequest{Role: "faculty"})
	require.Equal(t, http.StatusOK, status)
	var updated dto.UserResponse
	api.decode(env, &updated)
	assert.Equal(t, models.RoleFaculty, updated.Role)

	status, env = api.do(http.MethodGet, "/admin/users?role=faculty", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var users dto.UserListResponse
	api.decode(env, &users)
	assert.Equal(t, int64(1), users.Pagination.TotalItems)
}

func TestAPI_AdminCourseCatalog(t *testing.T) {
	api := newAPI(t)
	adminToken, _ := api.login("admin@university.edu", "admin123")

	req := dto.CourseRequest{
		CourseCode: "HIST210",
		Title:      "Modern History",
		Credits:    3,
		Department: "History",
		Instructor: "Dr. Stone",
		Schedule: dto.ScheduleRequest{
			Days:      []string{"Tuesday", "Thursday"},
			StartTime: "15:00",
			EndTime:   "16:30",
		},
		Semester:    "Fall",
		Year:        2024,
		MaxCapacity: 40,
	}

	status, env := api.do(http.MethodPost, "/admin/courses", adminToken, req)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var created models.Course
	api.decode(env, &created)
	assert.Equal(t, models.CategoryElective, created.Category)
	assert.Equal(t, models.LevelUndergraduate, created.Level)

	status, _ = api.do(http.MethodPost, "/admin/courses", adminToken, req)
	assert.Equal(t, http.StatusConflict, status)

	bad := req
	bad.CourseCode = "HIST211"
	bad.Schedule.StartTime = "25:00"
	status, env = api.do(http.MethodPost, "/admin/courses", adminToken, bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)

	backwards := req
	backwards.CourseCode = "HIST212"
	backwards.Schedule.StartTime, backwards.Schedule.EndTime = "16:30", "15:00"
	status, _ = api.do(http.MethodPost, "/admin/courses", adminToken, backwards)
	assert.Equal(t, http.StatusBadRequest, status)

	req.Title = "Modern World History"
	status, env = api.do(http.MethodPut, fmt.Sprintf("/admin/courses/%d", created.ID), adminToken, req)
	require.Equal(t, http.StatusOK, status)
	var updated models.Course
	api.decode(env, &updated)
	assert.Equal(t, "Modern World History", updated.Title)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/admin/courses/%d", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, fmt.Sprintf("/courses/%d", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_DemotedStudentTokenCannotRegister(t *testing.T) {
	api := newAPI(t)
	adminToken, _ := api.login("admin@university.edu", "admin123")
	token, studentID := api.registerStudent(1)

	cs101 := api.courseID(token, "CS101")
	math101 := api.courseID(token, "MATH101")

	status, _ := api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", cs101), token, nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/role", studentID), adminToken, dto.UpdateRoleRequest{Role: "faculty"})
	require.Equal(t, http.StatusOK, status)

	// the token still carries role=student
	status, env := api.do(http.MethodPost, fmt.Sprintf("/courses/%d/register", math101), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Student not found", env.Error.Message)

	status, _ = api.do(http.MethodDelete, fmt.Sprintf("/courses/%d/drop", cs101), token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = api.do(http.MethodGet, fmt.Sprintf("/courses/%d", math101), adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var course models.Course
	api.decode(env, &course)
	assert.Zero(t, course.CurrentEnrollment)
}

func TestAPI_CatalogHealth(t *testing.T) {
	api := newAPI(t)
	adminToken, _ := api.login("admin@university.edu", "admin123")
	token, _ := api.registerStudent(1)

	status, _ := api.do(http.MethodGet, "/admin/catalog-health", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodGet, "/admin/catalog-health", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var health audit.CatalogHealth
	api.decode(env, &health)

	assert.Equal(t, 5, health.TotalCourses)
	assert.Equal(t, 2, health.Departments["Computer Science"].TotalCourses)
	assert.Equal(t, audit.LevelStats{Beginner: 2, Intermediate: 2}, health.Levels)
	assert.Equal(t, map[string]int{"Computer Science": 1}, health.StudentsByMajor)
	assert.Empty(t, health.Issues)
	assert.Equal(t, audit.HealthGood, health.OverallHealth)
}

