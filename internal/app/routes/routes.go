package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/controllers"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	Course  *controllers.CourseController
	Faculty *controllers.FacultyController
	Admin   *controllers.AdminController
	User    *controllers.UserController
	Health  *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", ctrl.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", ctrl.Auth.Me)
	authenticated.PUT("/auth/profile", ctrl.Auth.UpdateProfile)

	courses := authenticated.Group("/courses")
	{
		courses.GET("", ctrl.Course.ListCourses)
		courses.GET("/:id", ctrl.Course.GetCourse)

		studentOnly := courses.Group("")
		studentOnly.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			studentOnly.GET("/my-courses", ctrl.Course.MyCourses)
			studentOnly.GET("/recommendations", ctrl.Course.Recommendations)
			studentOnly.POST("/schedule-optimization", ctrl.Course.OptimizeSchedule)
			studentOnly.POST("/:id/register", ctrl.Course.Register)
			studentOnly.DELETE("/:id/drop", ctrl.Course.Drop)
		}
	}

	faculty := authenticated.Group("/faculty")
	faculty.Use(authMiddleware.RoleRequired(models.RoleFaculty, models.RoleAdmin))
	{
		faculty.GET("/students", ctrl.Faculty.Students)
		faculty.GET("/students/:studentId/load", ctrl.Faculty.StudentLoad)
		faculty.GET("/courses", ctrl.Faculty.Courses)
		faculty.GET("/stats", ctrl.Faculty.Stats)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", ctrl.User.ListUsers)
		admin.PUT("/users/:userId/role", ctrl.User.UpdateRole)
		admin.POST("/users/:userId/assign-course", ctrl.Admin.AssignCourse)
		admin.DELETE("/users/:userId/remove-course/:courseId", ctrl.Admin.RemoveCourse)
		admin.POST("/users/:userId/complete-course/:courseId", ctrl.Admin.CompleteCourse)

		admin.POST("/courses", ctrl.Admin.CreateCourse)
		admin.PUT("/courses/:id", ctrl.Admin.UpdateCourse)
		admin.DELETE("/courses/:id", ctrl.Admin.DeleteCourse)

		admin.GET("/stats", ctrl.Admin.Stats)
		admin.GET("/anomalies", ctrl.Admin.Anomalies)
		admin.GET("/audit", ctrl.Admin.Audit)
		admin.GET("/demand-forecast", ctrl.Admin.DemandForecast)
		admin.GET("/catalog-health", ctrl.Admin.CatalogHealth)
	}
}
