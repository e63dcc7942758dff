package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/middleware"
)

// AdminController handles catalog maintenance, ledger administration and reports
type AdminController struct {
	courseService         services.CourseService
	registrationService   services.RegistrationService
	analyticsService      services.AnalyticsService
	recommendationService services.RecommendationService
	logger                zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(
	courseService services.CourseService,
	registrationService services.RegistrationService,
	analyticsService services.AnalyticsService,
	recommendationService services.RecommendationService,
	logger zerolog.Logger,
) *AdminController {
	return &AdminController{
		courseService:         courseService,
		registrationService:   registrationService,
		analyticsService:      analyticsService,
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// CreateCourse adds a course to the catalog
// @Summary Create course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CourseRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=models.Course}
// @Failure 400 {object} dto.APIResponse "Invalid course data"
// @Failure 409 {object} dto.APIResponse "Course code already used this term"
// @Router /admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course := req.ToModel()
	if err := c.courseService.CreateCourse(ctx.Request.Context(), course); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(course))
}

// UpdateCourse replaces the catalog fields of a course
// @Summary Update course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CourseRequest true "Course"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Router /admin/courses/{id} [put]
func (c *AdminController) UpdateCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), id, req.ToModel())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// DeleteCourse soft-deletes a course
// @Summary Delete course
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Router /admin/courses/{id} [delete]
func (c *AdminController) DeleteCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Course deleted successfully"}))
}

// Stats returns the admin dashboard totals
// @Summary System statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SystemStats}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.analyticsService.SystemStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// AssignCourse enrolls a student on their behalf
// @Summary Assign course to student
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Student user ID"
// @Param request body dto.AssignCourseRequest true "Course to assign"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 404 {object} dto.APIResponse "Student or course not found"
// @Failure 409 {object} dto.APIResponse "Registration denied"
// @Router /admin/users/{userId}/assign-course [post]
func (c *AdminController) AssignCourse(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}

	var req dto.AssignCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.registrationService.AssignCourse(ctx.Request.Context(), studentID, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("studentID", studentID).Int64("courseID", req.CourseID).Msg("Course assigned by admin")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.RegistrationResponse{
		Message:    "Course assigned successfully",
		Enrollment: enrollment,
	}))
}

// RemoveCourse drops a student from a course on their behalf
// @Summary Remove course from student
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Student user ID"
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.APIResponse "Not enrolled"
// @Router /admin/users/{userId}/remove-course/{courseId} [delete]
func (c *AdminController) RemoveCourse(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	if err := c.registrationService.RemoveCourse(ctx.Request.Context(), studentID, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Course removed by admin")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Course removed successfully"}))
}

// CompleteCourse closes a student's active enrollment as completed
// @Summary Mark course completed
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Student user ID"
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.APIResponse "Not enrolled"
// @Router /admin/users/{userId}/complete-course/{courseId} [post]
func (c *AdminController) CompleteCourse(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	if err := c.registrationService.Complete(ctx.Request.Context(), studentID, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Course marked as completed"}))
}

// Anomalies runs enrollment anomaly detection
// @Summary Enrollment anomalies
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param timeframe query string false "Look-back window" Enums(daily, weekly, monthly) default(weekly)
// @Success 200 {object} dto.APIResponse{data=audit.Report}
// @Router /admin/anomalies [get]
func (c *AdminController) Anomalies(ctx *gin.Context) {
	var q dto.AnomalyQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	report, err := c.analyticsService.DetectAnomalies(ctx.Request.Context(), q.Timeframe)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(report))
}

// Audit reconciles both sides of the enrollment ledger
// @Summary Ledger audit
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=audit.Reconciliation}
// @Router /admin/audit [get]
func (c *AdminController) Audit(ctx *gin.Context) {
	rec, err := c.analyticsService.Audit(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rec))
}

// CatalogHealth flags imbalances between the catalog and the student body
// @Summary Catalog health check
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=audit.CatalogHealth}
// @Router /admin/catalog-health [get]
func (c *AdminController) CatalogHealth(ctx *gin.Context) {
	health, err := c.analyticsService.CatalogHealth(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(health))
}

// DemandForecast rates each active course by demand
// @Summary Course demand forecast
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]recommend.DemandForecast}
// @Router /admin/demand-forecast [get]
func (c *AdminController) DemandForecast(ctx *gin.Context) {
	forecast, err := c.recommendationService.ForecastDemand(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(forecast))
}
