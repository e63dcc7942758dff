package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/recommend"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/middleware"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
)

const maxRecommendations = 20

// CourseController handles catalog browsing and student self-service registration
type CourseController struct {
	courseService         services.CourseService
	registrationService   services.RegistrationService
	recommendationService services.RecommendationService
}

// NewCourseController creates a new CourseController
func NewCourseController(
	courseService services.CourseService,
	registrationService services.RegistrationService,
	recommendationService services.RecommendationService,
) *CourseController {
	return &CourseController{
		courseService:         courseService,
		registrationService:   registrationService,
		recommendationService: recommendationService,
	}
}

// ListCourses returns one page of the active catalog
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Param semester query string false "Semester" Enums(Fall, Spring, Summer)
// @Param year query int false "Year"
// @Param search query string false "Matches code, title or description"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse}
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	var req dto.CourseFilterRequest
	if !middleware.BindQuery(ctx, &req) {
		return
	}
	page := helpers.ParsePaginationParams(ctx)

	filter := repositories.CourseFilter{
		Department: req.Department,
		Semester:   models.Semester(req.Semester),
		Year:       req.Year,
		Search:     req.Search,
	}
	courses, total, err := c.courseService.ListCourses(ctx.Request.Context(), filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CourseListResponse{
		Courses:    courses,
		Pagination: helpers.NewPaginationInfo(total, page),
	}))
}

// GetCourse returns a course with its roster
// @Summary Get course details
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// MyCourses lists the caller's active enrollments
// @Summary My courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /courses/my-courses [get]
func (c *CourseController) MyCourses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	courses, err := c.registrationService.MyCourses(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// Recommendations ranks catalog courses for the caller
// @Summary Course recommendations
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of recommendations" default(5)
// @Success 200 {object} dto.APIResponse{data=dto.RecommendationsResponse}
// @Router /courses/recommendations [get]
func (c *CourseController) Recommendations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(recommend.DefaultLimit)))
	if err != nil || limit <= 0 {
		limit = recommend.DefaultLimit
	}
	if limit > maxRecommendations {
		limit = maxRecommendations
	}

	resp, err := c.recommendationService.Recommend(ctx.Request.Context(), userID, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Register enrolls the caller in a course
// @Summary Register for a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 409 {object} dto.APIResponse "Denied: already enrolled, full, conflict or prerequisites not met"
// @Router /courses/{id}/register [post]
func (c *CourseController) Register(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.registrationService.Register(ctx.Request.Context(), userID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.RegistrationResponse{
		Message:    "Successfully registered for course",
		Enrollment: enrollment,
	}))
}

// Drop removes the caller from a course
// @Summary Drop a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 409 {object} dto.APIResponse "Not enrolled"
// @Router /courses/{id}/drop [delete]
func (c *CourseController) Drop(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.registrationService.Drop(ctx.Request.Context(), userID, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Successfully dropped course"}))
}

// OptimizeSchedule checks candidate courses against the caller's schedule
// @Summary Schedule optimization
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ScheduleOptimizationRequest true "Candidate course IDs"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleOptimizationResponse}
// @Router /courses/schedule-optimization [post]
func (c *CourseController) OptimizeSchedule(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.ScheduleOptimizationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.recommendationService.OptimizeSchedule(ctx.Request.Context(), userID, req.CourseIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
