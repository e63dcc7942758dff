package audit

import (
	"sort"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

// CourseDrift compares the three views of one course's enrollment
type CourseDrift struct {
	CourseID          int64  `json:"courseId"`
	CourseCode        string `json:"courseCode"`
	CurrentEnrollment int    `json:"currentEnrollment"`
	RosterCount       int    `json:"rosterCount"`
	ActiveRecords     int    `json:"activeRecords"`
	// MissingRoster lists students holding an enrolled record with no roster entry
	MissingRoster []int64 `json:"missingRoster,omitempty"`
	// MissingRecord lists roster students without an enrolled record
	MissingRecord []int64 `json:"missingRecord,omitempty"`
}

// Consistent reports whether all three views agree
func (d CourseDrift) Consistent() bool {
	return d.CurrentEnrollment == d.RosterCount &&
		d.RosterCount == d.ActiveRecords &&
		len(d.MissingRoster) == 0 &&
		len(d.MissingRecord) == 0
}

// Reconciliation is the ledger-wide drift report
type Reconciliation struct {
	Courses  []CourseDrift `json:"courses"`
	Drifted  int           `json:"drifted"`
	Checked  int           `json:"checked"`
	Students int           `json:"students"`
}

// DriftedCourses returns only the inconsistent entries
func (r Reconciliation) DriftedCourses() []CourseDrift {
	out := make([]CourseDrift, 0, r.Drifted)
	for _, d := range r.Courses {
		if !d.Consistent() {
			out = append(out, d)
		}
	}
	return out
}

// Reconcile cross-checks the course side of the ledger against the student side
func Reconcile(courses []*models.Course, users []*models.User) Reconciliation {
	holders := make(map[int64]map[int64]struct{})
	students := 0
	for _, u := range users {
		if u == nil {
			continue
		}
		students++
		for _, e := range u.EnrolledCourses {
			if e.Status != models.StatusEnrolled {
				continue
			}
			if holders[e.CourseID] == nil {
				holders[e.CourseID] = make(map[int64]struct{})
			}
			holders[e.CourseID][u.ID] = struct{}{}
		}
	}

	r := Reconciliation{Courses: make([]CourseDrift, 0, len(courses)), Students: students}
	for _, c := range courses {
		if c == nil {
			continue
		}
		active := holders[c.ID]
		d := CourseDrift{
			CourseID:          c.ID,
			CourseCode:        c.CourseCode,
			CurrentEnrollment: c.CurrentEnrollment,
			RosterCount:       len(c.EnrolledStudents),
			ActiveRecords:     len(active),
		}

		onRoster := make(map[int64]struct{}, len(c.EnrolledStudents))
		for _, e := range c.EnrolledStudents {
			onRoster[e.StudentID] = struct{}{}
			if _, ok := active[e.StudentID]; !ok {
				d.MissingRecord = append(d.MissingRecord, e.StudentID)
			}
		}
		for id := range active {
			if _, ok := onRoster[id]; !ok {
				d.MissingRoster = append(d.MissingRoster, id)
			}
		}
		sort.Slice(d.MissingRoster, func(i, j int) bool { return d.MissingRoster[i] < d.MissingRoster[j] })

		r.Checked++
		if !d.Consistent() {
			r.Drifted++
		}
		r.Courses = append(r.Courses, d)
	}
	return r
}
