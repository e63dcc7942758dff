package audit

import (
	"fmt"
	"math"
	"sort"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

// Catalog balance thresholds
const (
	minBeginnerShare       = 0.3
	maxAdvancedShare       = 0.4
	minCoursesPerStudent   = 0.1
	fairHealthIssuesCutoff = 3
)

// Overall catalog health labels
const (
	HealthGood           = "Good"
	HealthFair           = "Fair"
	HealthNeedsAttention = "Needs Attention"
)

// DepartmentHealth sums the active courses offered by one department
type DepartmentHealth struct {
	TotalCourses    int `json:"totalCourses"`
	TotalEnrollment int `json:"totalEnrollment"`
	TotalCapacity   int `json:"totalCapacity"`
	// CapacityUsed is TotalEnrollment over TotalCapacity, as a rounded percentage
	CapacityUsed int `json:"avgCapacityUsed"`
}

// LevelStats counts active courses per difficulty. Courses without a
// difficulty are not counted.
type LevelStats struct {
	Beginner     int `json:"beginner"`
	Intermediate int `json:"intermediate"`
	Advanced     int `json:"advanced"`
}

// CatalogHealth is the catalog balance report
type CatalogHealth struct {
	TotalCourses    int                         `json:"totalCourses"`
	Departments     map[string]DepartmentHealth `json:"departmentStats"`
	Levels          LevelStats                  `json:"levelStats"`
	StudentsByMajor map[string]int              `json:"studentsByMajor"`
	Issues          []string                    `json:"issues"`
	Recommendations []string                    `json:"recommendations"`
	OverallHealth   string                      `json:"overallHealth"`
}

// CheckCatalogHealth reports how well the active catalog serves the student
// body. Majors are matched to departments by name.
func CheckCatalogHealth(courses []*models.Course, users []*models.User) CatalogHealth {
	h := CatalogHealth{
		Departments:     make(map[string]DepartmentHealth),
		StudentsByMajor: make(map[string]int),
		Issues:          []string{},
		Recommendations: []string{},
	}

	for _, c := range courses {
		if c == nil || !c.IsActive {
			continue
		}
		h.TotalCourses++

		d := h.Departments[c.Department]
		d.TotalCourses++
		d.TotalEnrollment += c.CurrentEnrollment
		d.TotalCapacity += c.MaxCapacity
		h.Departments[c.Department] = d

		switch c.Difficulty {
		case models.DifficultyBeginner:
			h.Levels.Beginner++
		case models.DifficultyIntermediate:
			h.Levels.Intermediate++
		case models.DifficultyAdvanced:
			h.Levels.Advanced++
		}
	}
	for name, d := range h.Departments {
		if d.TotalCapacity > 0 {
			d.CapacityUsed = int(math.Round(float64(d.TotalEnrollment) / float64(d.TotalCapacity) * 100))
		}
		h.Departments[name] = d
	}

	if h.TotalCourses > 0 {
		total := float64(h.TotalCourses)
		if float64(h.Levels.Beginner)/total < minBeginnerShare {
			h.flag("Insufficient beginner-level courses", "Add more introductory courses for new students")
		}
		if float64(h.Levels.Advanced)/total > maxAdvancedShare {
			h.flag("Too many advanced courses relative to enrollment capacity",
				"Balance course levels - consider more intermediate options")
		}
	}

	for _, u := range users {
		if u == nil || !u.IsStudent() || u.Major == "" {
			continue
		}
		h.StudentsByMajor[u.Major]++
	}

	majors := make([]string, 0, len(h.StudentsByMajor))
	for major := range h.StudentsByMajor {
		majors = append(majors, major)
	}
	sort.Strings(majors)
	for _, major := range majors {
		offered := h.Departments[major].TotalCourses
		if float64(offered)/float64(h.StudentsByMajor[major]) < minCoursesPerStudent {
			h.flag(fmt.Sprintf("%s department may have insufficient course offerings", major),
				fmt.Sprintf("Consider expanding %s course catalog", major))
		}
	}

	switch {
	case len(h.Issues) == 0:
		h.OverallHealth = HealthGood
	case len(h.Issues) < fairHealthIssuesCutoff:
		h.OverallHealth = HealthFair
	default:
		h.OverallHealth = HealthNeedsAttention
	}
	return h
}

func (h *CatalogHealth) flag(issue, recommendation string) {
	h.Issues = append(h.Issues, issue)
	h.Recommendations = append(h.Recommendations, recommendation)
}
