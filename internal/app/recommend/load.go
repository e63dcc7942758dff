package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

// Load statuses
const (
	LoadNormal      = "Normal"
	LoadOverloaded  = "Overloaded"
	LoadUnderloaded = "Underloaded"
	LoadAtRisk      = "At Risk"
)

// Demand levels
const (
	DemandLow    = "Low"
	DemandMedium = "Medium"
	DemandHigh   = "High"
)

// LoadCourse is a compact view of an active enrollment
type LoadCourse struct {
	CourseCode string            `json:"courseCode"`
	Title      string            `json:"title"`
	Credits    int               `json:"credits"`
	Difficulty models.Difficulty `json:"difficulty,omitempty"`
}

// LoadAnalysis summarizes a student's current term
type LoadAnalysis struct {
	StudentID       int64        `json:"studentId"`
	StudentName     string       `json:"studentName"`
	TotalCredits    int          `json:"totalCredits"`
	CourseCount     int          `json:"courseCount"`
	GPA             float64      `json:"gpa"`
	LoadStatus      string       `json:"loadStatus"`
	Recommendations []string     `json:"recommendations"`
	Courses         []LoadCourse `json:"courses"`
}

// AnalyzeLoad classifies the student's active credit load for advisors
func AnalyzeLoad(student *models.User) LoadAnalysis {
	a := LoadAnalysis{
		StudentID:       student.ID,
		StudentName:     student.Name,
		GPA:             student.GPA,
		LoadStatus:      LoadNormal,
		Recommendations: []string{},
		Courses:         []LoadCourse{},
	}

	advanced := 0
	for _, e := range student.EnrolledCourses {
		if e.Status != models.StatusEnrolled {
			continue
		}
		a.CourseCount++
		a.TotalCredits += credits(e.Course)
		if e.Course == nil {
			continue
		}
		if e.Course.Difficulty == models.DifficultyAdvanced {
			advanced++
		}
		a.Courses = append(a.Courses, LoadCourse{
			CourseCode: e.Course.CourseCode,
			Title:      e.Course.Title,
			Credits:    e.Course.Credits,
			Difficulty: e.Course.Difficulty,
		})
	}

	switch {
	case a.TotalCredits > 18:
		a.LoadStatus = LoadOverloaded
		a.Recommendations = append(a.Recommendations, "Consider dropping a course to maintain academic performance")
		if a.GPA < 3.0 {
			a.Recommendations = append(a.Recommendations, "Heavy course load may be impacting GPA - recommend academic advising")
		}
	case a.TotalCredits < 12:
		a.LoadStatus = LoadUnderloaded
		a.Recommendations = append(a.Recommendations, "Consider adding courses to maintain full-time status")
	case a.TotalCredits >= 15 && a.GPA < 2.5:
		a.LoadStatus = LoadAtRisk
		a.Recommendations = append(a.Recommendations, "Current course load may be challenging given GPA - consider reducing load")
	}

	if advanced > 2 {
		a.Recommendations = append(a.Recommendations, "Multiple advanced courses detected - monitor student progress closely")
	}
	return a
}

// DemandForecast projects near-term demand for one course
type DemandForecast struct {
	CourseID            int64    `json:"courseId"`
	CourseCode          string   `json:"courseCode"`
	Title               string   `json:"title"`
	CurrentEnrollment   int      `json:"currentEnrollment"`
	MaxCapacity         int      `json:"maxCapacity"`
	EnrollmentRatio     int      `json:"enrollmentRatio"`
	DemandLevel         string   `json:"demandLevel"`
	ProjectedEnrollment int      `json:"projectedEnrollment"`
	DepartmentStudents  int      `json:"departmentStudents"`
	Recommendations     []string `json:"recommendations"`
}

// ForecastDemand rates every active course by fill ratio and department size,
// fullest first
func ForecastDemand(courses []*models.Course, students []*models.User) []DemandForecast {
	byMajor := make(map[string]int)
	for _, s := range students {
		if s.IsStudent() {
			byMajor[s.Major]++
		}
	}

	out := make([]DemandForecast, 0, len(courses))
	for _, c := range courses {
		if c == nil || !c.IsActive || c.MaxCapacity <= 0 {
			continue
		}
		ratio := float64(c.CurrentEnrollment) / float64(c.MaxCapacity)
		level := DemandLow
		projected := float64(c.CurrentEnrollment)
		switch {
		case ratio > 0.8:
			level = DemandHigh
			projected = math.Min(float64(c.MaxCapacity), projected*1.2)
		case ratio > 0.5:
			level = DemandMedium
			projected = math.Min(float64(c.MaxCapacity), projected*1.1)
		}

		intro := strings.Contains(c.CourseCode, "101")
		dept := byMajor[c.Department]
		if dept > 50 && intro {
			level = DemandHigh
		}

		recs := []string{}
		switch {
		case level == DemandHigh && ratio > 0.9:
			recs = append(recs, "Consider increasing capacity or adding another section")
		case level == DemandLow && ratio < 0.3:
			recs = append(recs, "Low enrollment - consider marketing or schedule adjustment")
		}
		if intro && level == DemandHigh {
			recs = append(recs, "High demand for introductory course - ensure adequate capacity")
		}

		out = append(out, DemandForecast{
			CourseID:            c.ID,
			CourseCode:          c.CourseCode,
			Title:               c.Title,
			CurrentEnrollment:   c.CurrentEnrollment,
			MaxCapacity:         c.MaxCapacity,
			EnrollmentRatio:     int(math.Round(ratio * 100)),
			DemandLevel:         level,
			ProjectedEnrollment: int(math.Round(projected)),
			DepartmentStudents:  dept,
			Recommendations:     recs,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnrollmentRatio > out[j].EnrollmentRatio
	})
	return out
}
