package dto

import "github.com/sparks-2204/course-recommendation-system/internal/app/models"

// CourseEnrollment is a per-course roster count
type CourseEnrollment struct {
	CourseID        int64  `json:"courseId"`
	CourseCode      string `json:"courseCode"`
	EnrollmentCount int    `json:"enrollmentCount"`
}

// FacultyStats summarizes the catalog for faculty
type FacultyStats struct {
	TotalStudents  int64              `json:"totalStudents"`
	TotalCourses   int64              `json:"totalCourses"`
	EnrollmentData []CourseEnrollment `json:"enrollmentData"`
}

// PopularCourse is a compact course view used in system statistics
type PopularCourse struct {
	ID                int64  `json:"id"`
	CourseCode        string `json:"courseCode"`
	Title             string `json:"title"`
	CurrentEnrollment int    `json:"currentEnrollment"`
	MaxCapacity       int    `json:"maxCapacity"`
}

// SystemStats is the admin dashboard summary
type SystemStats struct {
	TotalUsers          int64                      `json:"totalUsers"`
	TotalStudents       int64                      `json:"totalStudents"`
	TotalFaculty        int64                      `json:"totalFaculty"`
	TotalCourses        int64                      `json:"totalCourses"`
	TotalEnrollments    int64                      `json:"totalEnrollments"`
	PopularCourses      []PopularCourse            `json:"popularCourses"`
	RecentRegistrations []models.RegistrationEvent `json:"recentRegistrations"`
}

// AnomalyQuery selects the look-back window of anomaly detection
type AnomalyQuery struct {
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=daily weekly monthly"`
}
