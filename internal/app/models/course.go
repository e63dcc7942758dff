package models

import "time"

// Schedule is the weekly meeting pattern of a course.
// StartTime and EndTime are zero-padded 24-hour "HH:MM" strings.
type Schedule struct {
	Days      []Weekday `json:"days" example:"Monday,Wednesday"`
	StartTime string    `json:"startTime" example:"09:00"`
	EndTime   string    `json:"endTime" example:"10:00"`
	Room      string    `json:"room,omitempty" example:"CS-101"`
}

// RosterEntry is the course side of the ledger
type RosterEntry struct {
	StudentID     int64     `json:"studentId" db:"user_id"`
	StudentName   string    `json:"studentName,omitempty"`
	StudentNumber string    `json:"studentNumber,omitempty"`
	EnrolledAt    time.Time `json:"enrolledAt" db:"enrolled_at"`
}

// Course defines the course model based on the 'courses' table
type Course struct {
	ID                int64      `json:"id" db:"id" example:"1"`
	CourseCode        string     `json:"courseCode" db:"course_code" example:"CS101"`
	Title             string     `json:"title" db:"title" example:"Introduction to Computer Science"`
	Description       string     `json:"description,omitempty" db:"description"`
	Credits           int        `json:"credits" db:"credits" example:"3"`
	Department        string     `json:"department" db:"department" example:"Computer Science"`
	Instructor        string     `json:"instructor" db:"instructor" example:"Dr. Smith"`
	Schedule          Schedule   `json:"schedule"`
	Semester          Semester   `json:"semester" db:"semester" example:"Fall"`
	Year              int        `json:"year" db:"year" example:"2024"`
	MaxCapacity       int        `json:"maxCapacity" db:"max_capacity" example:"30"`
	CurrentEnrollment int        `json:"currentEnrollment" db:"current_enrollment" example:"12"`
	Prerequisites     []string   `json:"prerequisites" db:"prerequisites"`
	Category          Category   `json:"category" db:"category" example:"core"`
	Level             Level      `json:"level" db:"level" example:"undergraduate"`
	Difficulty        Difficulty `json:"difficulty,omitempty" db:"difficulty"`
	IsActive          bool       `json:"isActive" db:"is_active"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`

	EnrolledStudents []RosterEntry `json:"enrolledStudents,omitempty"`
}

// AvailableSeats returns the remaining capacity, never negative
func (c *Course) AvailableSeats() int {
	if c.CurrentEnrollment >= c.MaxCapacity {
		return 0
	}
	return c.MaxCapacity - c.CurrentEnrollment
}
