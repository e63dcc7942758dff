package recommend

import (
	"sort"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/app/registration"
)

// Workload levels
const (
	WorkloadLow    = "Low"
	WorkloadMedium = "Medium"
	WorkloadHigh   = "High"
)

const defaultCredits = 3

// WorkloadImpact describes the credit load after adding a course
type WorkloadImpact struct {
	Impact          string `json:"impact"`
	CurrentCredits  int    `json:"currentCredits"`
	NewTotalCredits int    `json:"newTotalCredits"`
	Recommendation  string `json:"recommendation"`
}

// ScheduleFit is the evaluation of one candidate course
type ScheduleFit struct {
	Course            *models.Course `json:"course"`
	HasConflicts      bool           `json:"hasConflicts"`
	Conflicts         []string       `json:"conflicts"`
	Workload          WorkloadImpact `json:"workloadImpact"`
	OptimizationScore int            `json:"optimizationScore"`
}

func credits(c *models.Course) int {
	if c == nil || c.Credits <= 0 {
		return defaultCredits
	}
	return c.Credits
}

// EnrolledCredits sums the credits of the student's active enrollments
func EnrolledCredits(student *models.User) int {
	total := 0
	for _, e := range student.EnrolledCourses {
		if e.Status == models.StatusEnrolled {
			total += credits(e.Course)
		}
	}
	return total
}

// Workload computes the impact of adding course to the student's load
func Workload(course *models.Course, student *models.User) WorkloadImpact {
	current := EnrolledCredits(student)
	total := current + credits(course)

	impact := WorkloadLow
	switch {
	case total > 18:
		impact = WorkloadHigh
	case total > 15:
		impact = WorkloadMedium
	}

	return WorkloadImpact{
		Impact:          impact,
		CurrentCredits:  current,
		NewTotalCredits: total,
		Recommendation:  workloadAdvice(total, student.GPA),
	}
}

func workloadAdvice(total int, gpa float64) string {
	switch {
	case total > 18 && gpa >= 3.5:
		return "Heavy load but manageable with your strong GPA"
	case total > 18:
		return "Consider reducing course load for better academic performance"
	case total > 15:
		return "Standard full-time course load"
	default:
		return "Light course load - consider adding another course"
	}
}

// Conflicts lists the codes of the student's active courses whose schedule
// collides with course
func Conflicts(course *models.Course, student *models.User) []string {
	codes := []string{}
	for _, e := range student.EnrolledCourses {
		if e.Status != models.StatusEnrolled || e.Course == nil || e.CourseID == course.ID {
			continue
		}
		if registration.HasScheduleConflict(course.Schedule, e.Course.Schedule) {
			codes = append(codes, e.Course.CourseCode)
		}
	}
	return codes
}

// OptimizationScore combines conflict count and workload into a 0..100 fit score
func OptimizationScore(conflicts int, w WorkloadImpact) int {
	score := maxScore - conflicts*30

	switch w.Impact {
	case WorkloadHigh:
		score -= 20
	case WorkloadLow:
		score -= 5
	}

	if w.NewTotalCredits >= 15 && w.NewTotalCredits <= 16 {
		score += 10
	}

	if score < 0 {
		return 0
	}
	return score
}

// OptimizeSchedule evaluates each candidate against the student's current
// schedule and returns them best fit first
func OptimizeSchedule(student *models.User, candidates []*models.Course) []ScheduleFit {
	fits := make([]ScheduleFit, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		conflicts := Conflicts(c, student)
		w := Workload(c, student)
		fits = append(fits, ScheduleFit{
			Course:            c,
			HasConflicts:      len(conflicts) > 0,
			Conflicts:         conflicts,
			Workload:          w,
			OptimizationScore: OptimizationScore(len(conflicts), w),
		})
	}

	sort.SliceStable(fits, func(i, j int) bool {
		return fits[i].OptimizationScore > fits[j].OptimizationScore
	})
	return fits
}
