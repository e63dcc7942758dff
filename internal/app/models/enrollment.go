package models

import "time"

// Enrollment is a student-side ledger record. Records are never deleted:
// dropping flips Status and stamps DroppedAt.
type Enrollment struct {
	ID         int64            `json:"id" db:"id"`
	CourseID   int64            `json:"courseId" db:"course_id"`
	EnrolledAt time.Time        `json:"enrolledAt" db:"enrolled_at"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	DroppedAt  *time.Time       `json:"droppedAt,omitempty" db:"dropped_at"`

	// Course is populated by repositories when the record is loaded with its user
	Course *Course `json:"course,omitempty"`
}

// RegistrationEvent is a flattened view of a recent enrollment for reporting
type RegistrationEvent struct {
	StudentName   string    `json:"studentName"`
	StudentNumber string    `json:"studentId"`
	CourseCode    string    `json:"courseCode"`
	CourseTitle   string    `json:"courseTitle"`
	EnrolledAt    time.Time `json:"enrolledAt"`
}
