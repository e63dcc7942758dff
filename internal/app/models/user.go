package models

import (
	"strings"
	"time"
)

// Role is the user's access role
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// AcademicYear is the student's standing
type AcademicYear string

const (
	YearFreshman  AcademicYear = "freshman"
	YearSophomore AcademicYear = "sophomore"
	YearJunior    AcademicYear = "junior"
	YearSenior    AcademicYear = "senior"
	YearGraduate  AcademicYear = "graduate"
)

// Normalize lowercases the year so "Freshman" and "freshman" compare equal
func (y AcademicYear) Normalize() AcademicYear {
	return AcademicYear(strings.ToLower(strings.TrimSpace(string(y))))
}

// User defines the user model based on the 'users' table
type User struct {
	ID        int64        `json:"id" db:"id" example:"1"`
	Name      string       `json:"name" db:"name" example:"Jane Doe"`
	Email     string       `json:"email" db:"email" example:"jane@university.edu"`
	Password  string       `json:"-" db:"password_hash"`
	Role      Role         `json:"role" db:"role" example:"student"`
	StudentID *string      `json:"studentId,omitempty" db:"student_id" example:"STU123456"`
	GPA       float64      `json:"gpa" db:"gpa" example:"3.4"`
	Major     string       `json:"major,omitempty" db:"major" example:"Computer Science"`
	Year      AcademicYear `json:"year,omitempty" db:"academic_year" example:"sophomore"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`

	// EnrolledCourses is the student side of the ledger, oldest first
	EnrolledCourses []Enrollment `json:"enrolledCourses"`
}

// IsStudent reports whether the user has the student role
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}
