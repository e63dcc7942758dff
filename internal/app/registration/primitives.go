package registration

import "github.com/sparks-2204/course-recommendation-system/internal/app/models"

// IsFull reports whether the course has no seats left
func IsFull(course *models.Course) bool {
	return course.CurrentEnrollment >= course.MaxCapacity
}

// HasScheduleConflict reports whether two weekly schedules share a day and overlap in time.
// Times are "HH:MM" strings, so lexicographic order matches chronological order.
// Intervals are half-open: a class ending at 10:00 does not collide with one starting at 10:00.
func HasScheduleConflict(a, b models.Schedule) bool {
	if !sharesDay(a.Days, b.Days) {
		return false
	}
	return a.StartTime < b.EndTime && a.EndTime > b.StartTime
}

func sharesDay(a, b []models.Weekday) bool {
	days := make(map[models.Weekday]struct{}, len(a))
	for _, d := range a {
		days[d] = struct{}{}
	}
	for _, d := range b {
		if _, ok := days[d]; ok {
			return true
		}
	}
	return false
}

// ActiveEnrollment returns the index of the student's "enrolled" record for courseID, or -1
func ActiveEnrollment(student *models.User, courseID int64) int {
	for i, e := range student.EnrolledCourses {
		if e.CourseID == courseID && e.Status == models.StatusEnrolled {
			return i
		}
	}
	return -1
}

// CompletedCodes returns the set of course codes the student has completed.
// Records without a populated course are skipped.
func CompletedCodes(student *models.User) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, e := range student.EnrolledCourses {
		if e.Status == models.StatusCompleted && e.Course != nil {
			codes[e.Course.CourseCode] = struct{}{}
		}
	}
	return codes
}

// MissingPrerequisites lists the prerequisite codes absent from completed
func MissingPrerequisites(course *models.Course, completed map[string]struct{}) []string {
	var missing []string
	for _, code := range course.Prerequisites {
		if _, ok := completed[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
