// Package recommend ranks catalog courses for a student and evaluates how
// candidate courses would fit into the student's current schedule.
// Everything here is read-only over the models it receives.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

const (
	// DefaultLimit is the number of recommendations returned when none is requested
	DefaultLimit = 5

	baseScore = 50
	maxScore  = 100

	defaultReason = "Recommended based on your academic profile"
)

var relatedMajors = map[string][]string{
	"Computer Science": {"Mathematics", "Engineering", "Physics"},
	"Mathematics":      {"Computer Science", "Physics", "Engineering"},
	"Engineering":      {"Mathematics", "Physics", "Computer Science"},
	"Physics":          {"Mathematics", "Engineering", "Computer Science"},
	"Business":         {"Economics", "Accounting", "Marketing"},
	"Economics":        {"Business", "Mathematics", "Statistics"},
}

// yearDigit maps an academic year to the course-code digit that suits it
var yearDigit = map[models.AcademicYear]string{
	models.YearFreshman:  "1",
	models.YearSophomore: "2",
	models.YearJunior:    "3",
	models.YearSenior:    "4",
}

// Recommendation is a scored catalog course
type Recommendation struct {
	Course  *models.Course `json:"course"`
	Score   int            `json:"score"`
	Reasons []string       `json:"reasons"`
}

// IsRelatedMajor reports whether department is listed as related to major
func IsRelatedMajor(department, major string) bool {
	for _, d := range relatedMajors[major] {
		if d == department {
			return true
		}
	}
	return false
}

// Score rates course for student on a 0..100 scale
func Score(course *models.Course, student *models.User) int {
	score := baseScore

	switch {
	case course.Department == student.Major:
		score += 40
	case IsRelatedMajor(course.Department, student.Major):
		score += 20
	}

	code := course.CourseCode
	gpa := student.GPA
	switch {
	case gpa >= 3.5:
		if course.Difficulty == models.DifficultyAdvanced || strings.ContainsAny(code, "34") {
			score += 25
		}
	case gpa >= 2.5:
		if course.Difficulty == models.DifficultyIntermediate || strings.Contains(code, "2") {
			score += 20
		}
	default:
		if course.Difficulty == models.DifficultyBeginner || strings.Contains(code, "1") {
			score += 30
		}
	}

	if PrerequisitesSatisfied(course, student) {
		score += 15
	} else if len(course.Prerequisites) > 0 {
		score -= 20
	}

	if course.MaxCapacity > 0 {
		ratio := float64(course.CurrentEnrollment) / float64(course.MaxCapacity)
		if ratio > 0.3 && ratio < 0.8 {
			score += 10
		}
	}

	if digit, ok := yearDigit[student.Year.Normalize()]; ok && strings.Contains(code, digit) {
		score += 15
	}

	return clamp(score, 0, maxScore)
}

// Reasons explains a recommendation in plain sentences
func Reasons(course *models.Course, student *models.User) []string {
	var reasons []string

	if course.Department == student.Major && student.Major != "" {
		reasons = append(reasons, fmt.Sprintf("Perfect match for your %s major", student.Major))
	}

	code := course.CourseCode
	switch {
	case student.GPA >= 3.5 && (course.Difficulty == models.DifficultyAdvanced || strings.Contains(code, "3")):
		reasons = append(reasons, fmt.Sprintf("Your strong GPA (%.2f) makes you ready for this advanced course", student.GPA))
	case student.GPA < 2.5 && strings.Contains(code, "1"):
		reasons = append(reasons, "Foundational course to strengthen your academic base")
	}

	if PrerequisitesSatisfied(course, student) {
		reasons = append(reasons, "You meet all prerequisites")
	}

	switch year := student.Year.Normalize(); {
	case year == models.YearFreshman && strings.Contains(code, "1"):
		reasons = append(reasons, "Ideal for first-year students")
	case year == models.YearSenior && strings.Contains(code, "4"):
		reasons = append(reasons, "Advanced course suitable for senior year")
	}

	if course.MaxCapacity > 0 {
		ratio := float64(course.CurrentEnrollment) / float64(course.MaxCapacity)
		switch {
		case ratio < 0.5:
			reasons = append(reasons, "Good availability - register soon!")
		case ratio > 0.8:
			reasons = append(reasons, "Popular course - limited seats remaining")
		}
	}

	if len(reasons) == 0 {
		return []string{defaultReason}
	}
	return reasons
}

// PrerequisitesSatisfied reports whether every prerequisite code is completed
// or currently being taken. This is looser than the registration gate, which
// requires completion.
func PrerequisitesSatisfied(course *models.Course, student *models.User) bool {
	if len(course.Prerequisites) == 0 {
		return true
	}
	held := make(map[string]struct{})
	for _, e := range student.EnrolledCourses {
		if e.Course == nil {
			continue
		}
		if e.Status == models.StatusCompleted || e.Status == models.StatusEnrolled {
			held[e.Course.CourseCode] = struct{}{}
		}
	}
	for _, code := range course.Prerequisites {
		if _, ok := held[code]; !ok {
			return false
		}
	}
	return true
}

// Recommend scores every active catalog course the student is not currently
// enrolled in and returns the best limit of them. Ties keep catalog order.
func Recommend(student *models.User, catalog []*models.Course, limit int) []Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}

	active := make(map[int64]struct{})
	for _, e := range student.EnrolledCourses {
		if e.Status == models.StatusEnrolled {
			active[e.CourseID] = struct{}{}
		}
	}

	recs := make([]Recommendation, 0, len(catalog))
	for _, c := range catalog {
		if c == nil || !c.IsActive {
			continue
		}
		if _, ok := active[c.ID]; ok {
			continue
		}
		recs = append(recs, Recommendation{
			Course:  c,
			Score:   Score(c, student),
			Reasons: Reasons(c, student),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
