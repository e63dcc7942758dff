package models

// Semester of a course offering
type Semester string

const (
	SemesterFall   Semester = "Fall"
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
)

// Weekday is a full English day name as stored on schedules
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Category classifies a course within a curriculum
type Category string

const (
	CategoryCore             Category = "core"
	CategoryElective         Category = "elective"
	CategoryMajor            Category = "major"
	CategoryGeneralEducation Category = "general_education"
)

// Level is the program level of a course
type Level string

const (
	LevelUndergraduate Level = "undergraduate"
	LevelGraduate      Level = "graduate"
)

// Difficulty is an optional hint used by recommendation scoring
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// EnrollmentStatus tags a student-side enrollment record
type EnrollmentStatus string

const (
	StatusEnrolled  EnrollmentStatus = "enrolled"
	StatusDropped   EnrollmentStatus = "dropped"
	StatusCompleted EnrollmentStatus = "completed"
)
