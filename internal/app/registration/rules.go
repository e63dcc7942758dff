package registration

import (
	"time"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
)

// Reason explains a denied registration or drop
type Reason string

const (
	ReasonNotFound        Reason = "not found"
	ReasonAlreadyEnrolled Reason = "already enrolled"
	ReasonFull            Reason = "full"
	ReasonConflict        Reason = "conflict"
	ReasonPrerequisites   Reason = "prerequisites not met"
	ReasonNotEnrolled     Reason = "not enrolled"
)

// Decision is the outcome of a rule evaluation
type Decision struct {
	Allowed bool
	Reason  Reason
	// ConflictsWith holds the course code that caused a schedule conflict
	ConflictsWith string
	// Missing holds unmet prerequisite codes
	Missing []string
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into the application error taxonomy: "not found" becomes
// a NotFound error, every other reason a Conflict error carrying the reason code.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotFound {
		return apperrors.NewCustomError(apperrors.ErrCourseNotFound, "course not found").
			WithCode(string(ReasonNotFound))
	}
	err := apperrors.NewCustomError(apperrors.ErrConflict, string(d.Reason)).
		WithCode(string(d.Reason)).
		WithStatusMsg(d.StatusMessage())
	switch {
	case d.ConflictsWith != "":
		err.WithDetails(map[string]interface{}{"conflictsWith": d.ConflictsWith})
	case len(d.Missing) > 0:
		err.WithDetails(map[string]interface{}{"missing": d.Missing})
	}
	return err
}

// StatusMessage is the user-facing text for a denial
func (d Decision) StatusMessage() string {
	switch d.Reason {
	case ReasonNotFound:
		return "Course not found"
	case ReasonAlreadyEnrolled:
		return "Already enrolled in this course"
	case ReasonFull:
		return "Course is full"
	case ReasonConflict:
		if d.ConflictsWith != "" {
			return "Schedule conflict with " + d.ConflictsWith
		}
		return "Schedule conflict with enrolled courses"
	case ReasonPrerequisites:
		return "Prerequisites not met"
	case ReasonNotEnrolled:
		return "Not enrolled in this course"
	}
	return ""
}

// CanRegister evaluates, in order, whether student may enroll in course:
// existence, duplicate enrollment, capacity, schedule conflicts, prerequisites.
// The first failing check decides. Schedule and prerequisite checks read
// the populated Course of each of the student's records.
func CanRegister(student *models.User, course *models.Course) Decision {
	if course == nil || !course.IsActive {
		return Deny(ReasonNotFound)
	}
	if ActiveEnrollment(student, course.ID) >= 0 {
		return Deny(ReasonAlreadyEnrolled)
	}
	if IsFull(course) {
		return Deny(ReasonFull)
	}
	for _, e := range student.EnrolledCourses {
		if e.Status != models.StatusEnrolled || e.Course == nil || e.CourseID == course.ID {
			continue
		}
		if HasScheduleConflict(course.Schedule, e.Course.Schedule) {
			d := Deny(ReasonConflict)
			d.ConflictsWith = e.Course.CourseCode
			return d
		}
	}
	if missing := MissingPrerequisites(course, CompletedCodes(student)); len(missing) > 0 {
		d := Deny(ReasonPrerequisites)
		d.Missing = missing
		return d
	}
	return Allow()
}

// CanDrop evaluates whether student may drop course
func CanDrop(student *models.User, course *models.Course) Decision {
	if course == nil {
		return Deny(ReasonNotFound)
	}
	if ActiveEnrollment(student, course.ID) < 0 {
		return Deny(ReasonNotEnrolled)
	}
	return Allow()
}

// ApplyRegister performs the two-sided registration mutation in memory.
// Callers must have obtained an allowing CanRegister decision.
func ApplyRegister(student *models.User, course *models.Course, at time.Time) {
	student.EnrolledCourses = append(student.EnrolledCourses, models.Enrollment{
		CourseID:   course.ID,
		Course:     course,
		EnrolledAt: at,
		Status:     models.StatusEnrolled,
	})
	course.EnrolledStudents = append(course.EnrolledStudents, models.RosterEntry{
		StudentID:  student.ID,
		EnrolledAt: at,
	})
	course.CurrentEnrollment++
}

// ApplyDrop performs the two-sided drop mutation in memory. The student record
// is kept with status "dropped"; the roster entry is removed outright.
// It reports whether a roster entry was found; false means the two sides had drifted.
func ApplyDrop(student *models.User, course *models.Course, at time.Time) bool {
	return leave(student, course, models.StatusDropped, at)
}

// ApplyComplete closes an active enrollment as "completed" and frees the seat
func ApplyComplete(student *models.User, course *models.Course, at time.Time) bool {
	return leave(student, course, models.StatusCompleted, at)
}

func leave(student *models.User, course *models.Course, status models.EnrollmentStatus, at time.Time) bool {
	if i := ActiveEnrollment(student, course.ID); i >= 0 {
		student.EnrolledCourses[i].Status = status
		if status == models.StatusDropped {
			ts := at
			student.EnrolledCourses[i].DroppedAt = &ts
		}
	}

	found := false
	roster := course.EnrolledStudents[:0]
	for _, r := range course.EnrolledStudents {
		if r.StudentID == student.ID {
			found = true
			continue
		}
		roster = append(roster, r)
	}
	course.EnrolledStudents = roster

	if course.CurrentEnrollment > 0 {
		course.CurrentEnrollment--
	}
	return found
}
