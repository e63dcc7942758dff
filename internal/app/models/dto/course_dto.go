package dto

import (
	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/recommend"
)

// ScheduleRequest is the weekly meeting pattern of a course
type ScheduleRequest struct {
	Days      []string `json:"days" binding:"required,min=1,dive,weekday"`
	StartTime string   `json:"startTime" binding:"required,clock"`
	EndTime   string   `json:"endTime" binding:"required,clock"`
	Room      string   `json:"room" binding:"omitempty,max=50"`
}

// CourseRequest creates or replaces a catalog course
type CourseRequest struct {
	CourseCode    string          `json:"courseCode" binding:"required,coursecode"`
	Title         string          `json:"title" binding:"required,max=200"`
	Description   string          `json:"description" binding:"omitempty,max=2000"`
	Credits       int             `json:"credits" binding:"required,min=1,max=6"`
	Department    string          `json:"department" binding:"required,max=100"`
	Instructor    string          `json:"instructor" binding:"required,max=100"`
	Schedule      ScheduleRequest `json:"schedule" binding:"required"`
	Semester      string          `json:"semester" binding:"required,oneof=Fall Spring Summer"`
	Year          int             `json:"year" binding:"required,min=2000,max=2100"`
	MaxCapacity   int             `json:"maxCapacity" binding:"required,min=1"`
	Prerequisites []string        `json:"prerequisites" binding:"omitempty,dive,coursecode"`
	Category      string          `json:"category" binding:"omitempty,oneof=core elective major general_education"`
	Level         string          `json:"level" binding:"omitempty,oneof=undergraduate graduate"`
	Difficulty    string          `json:"difficulty" binding:"omitempty,oneof=Beginner Intermediate Advanced"`
	IsActive      *bool           `json:"isActive"`
}

// ToModel converts the request into a course, applying catalog defaults
func (r *CourseRequest) ToModel() *models.Course {
	days := make([]models.Weekday, len(r.Schedule.Days))
	for i, d := range r.Schedule.Days {
		days[i] = models.Weekday(d)
	}
	prereqs := r.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}

	c := &models.Course{
		CourseCode:  r.CourseCode,
		Title:       r.Title,
		Description: r.Description,
		Credits:     r.Credits,
		Department:  r.Department,
		Instructor:  r.Instructor,
		Schedule: models.Schedule{
			Days:      days,
			StartTime: r.Schedule.StartTime,
			EndTime:   r.Schedule.EndTime,
			Room:      r.Schedule.Room,
		},
		Semester:      models.Semester(r.Semester),
		Year:          r.Year,
		MaxCapacity:   r.MaxCapacity,
		Prerequisites: prereqs,
		Category:      models.Category(r.Category),
		Level:         models.Level(r.Level),
		Difficulty:    models.Difficulty(r.Difficulty),
		IsActive:      true,
	}
	if c.Category == "" {
		c.Category = models.CategoryElective
	}
	if c.Level == "" {
		c.Level = models.LevelUndergraduate
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	return c
}

// CourseFilterRequest represents catalog query parameters
type CourseFilterRequest struct {
	Department string `form:"department" binding:"omitempty,max=100"`
	Semester   string `form:"semester" binding:"omitempty,oneof=Fall Spring Summer"`
	Year       int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Search     string `form:"search" binding:"omitempty,max=100"`
}

// CourseListResponse is one page of the catalog
type CourseListResponse struct {
	Courses    []*models.Course `json:"courses"`
	Pagination PaginationInfo   `json:"pagination"`
}

// RegistrationResponse confirms a registration
type RegistrationResponse struct {
	Message    string             `json:"message"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

// ScheduleOptimizationRequest lists candidate courses to check against the current schedule
type ScheduleOptimizationRequest struct {
	CourseIDs []int64 `json:"courseIds" binding:"required,min=1,max=20,dive,min=1"`
}

// StudentProfile summarizes the inputs recommendations were scored on
type StudentProfile struct {
	Major            string              `json:"major"`
	Year             models.AcademicYear `json:"year"`
	GPA              float64             `json:"gpa"`
	CompletedCourses int                 `json:"completedCourses"`
	EnrolledCredits  int                 `json:"enrolledCredits"`
}

// RecommendationsResponse holds ranked recommendations for a student
type RecommendationsResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	StudentProfile  StudentProfile             `json:"studentProfile"`
}

// ScheduleOptimizationResponse ranks candidate courses by schedule fit
type ScheduleOptimizationResponse struct {
	Analysis       []recommend.ScheduleFit `json:"analysis"`
	CurrentCredits int                     `json:"currentCredits"`
}
