package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/middleware"
)

// FacultyController serves the faculty views of students and rosters
type FacultyController struct {
	userService           services.UserService
	courseService         services.CourseService
	analyticsService      services.AnalyticsService
	recommendationService services.RecommendationService
}

// NewFacultyController creates a new FacultyController
func NewFacultyController(
	userService services.UserService,
	courseService services.CourseService,
	analyticsService services.AnalyticsService,
	recommendationService services.RecommendationService,
) *FacultyController {
	return &FacultyController{
		userService:           userService,
		courseService:         courseService,
		analyticsService:      analyticsService,
		recommendationService: recommendationService,
	}
}

// Students lists every student with their enrollments
// @Summary List students
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse}
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /faculty/students [get]
func (c *FacultyController) Students(ctx *gin.Context) {
	students, err := c.userService.ListStudents(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromUsers(students)))
}

// Courses lists active courses with rosters
// @Summary List courses with rosters
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /faculty/courses [get]
func (c *FacultyController) Courses(ctx *gin.Context) {
	courses, err := c.courseService.ListWithRosters(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// Stats returns enrollment counts per course
// @Summary Faculty statistics
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.FacultyStats}
// @Router /faculty/stats [get]
func (c *FacultyController) Stats(ctx *gin.Context) {
	stats, err := c.analyticsService.FacultyStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// StudentLoad analyzes one student's credit load
// @Summary Student load analysis
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student user ID"
// @Success 200 {object} dto.APIResponse{data=recommend.LoadAnalysis}
// @Failure 404 {object} dto.APIResponse "Student not found"
// @Router /faculty/students/{studentId}/load [get]
func (c *FacultyController) StudentLoad(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "studentId")
	if !ok {
		return
	}

	analysis, err := c.recommendationService.AnalyzeLoad(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(analysis))
}
