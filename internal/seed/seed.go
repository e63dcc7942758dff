package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/sparks-2204/course-recommendation-system/internal/app/models"
	appRepos "github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
)

// Options controls what CreateDefaultData writes
type Options struct {
	AdminEmail    string
	AdminPassword string
	SampleCourses bool
}

// SampleCourses returns the Fall 2024 catalog created on first start
func SampleCourses() []*appModels.Course {
	return []*appModels.Course{
		{
			CourseCode:  "CS101",
			Title:       "Introduction to Computer Science",
			Description: "Fundamental concepts of computer science including programming basics, algorithms, and data structures.",
			Credits:     3,
			Department:  "Computer Science",
			Instructor:  "Dr. Smith",
			Schedule: appModels.Schedule{
				Days:      []appModels.Weekday{appModels.Monday, appModels.Wednesday, appModels.Friday},
				StartTime: "09:00", EndTime: "10:00", Room: "CS-101",
			},
			Semester: appModels.SemesterFall, Year: 2024, MaxCapacity: 30,
			Category: appModels.CategoryCore, Level: appModels.LevelUndergraduate, Difficulty: appModels.DifficultyBeginner,
		},
		{
			CourseCode:  "CS201",
			Title:       "Data Structures and Algorithms",
			Description: "Advanced study of data structures, algorithm design, and complexity analysis.",
			Credits:     4,
			Department:  "Computer Science",
			Instructor:  "Dr. Johnson",
			Schedule: appModels.Schedule{
				Days:      []appModels.Weekday{appModels.Tuesday, appModels.Thursday},
				StartTime: "11:00", EndTime: "12:30", Room: "CS-201",
			},
			Semester: appModels.SemesterFall, Year: 2024, MaxCapacity: 25,
			Prerequisites: []string{"CS101"},
			Category:      appModels.CategoryMajor, Level: appModels.LevelUndergraduate, Difficulty: appModels.DifficultyIntermediate,
		},
		{
			CourseCode:  "MATH101",
			Title:       "Calculus I",
			Description: "Introduction to differential and integral calculus with applications.",
			Credits:     4,
			Department:  "Mathematics",
			Instructor:  "Prof. Davis",
			Schedule: appModels.Schedule{
				Days:      []appModels.Weekday{appModels.Monday, appModels.Wednesday, appModels.Friday},
				StartTime: "10:00", EndTime: "11:00", Room: "MATH-101",
			},
			Semester: appModels.SemesterFall, Year: 2024, MaxCapacity: 40,
			Category: appModels.CategoryCore, Level: appModels.LevelUndergraduate, Difficulty: appModels.DifficultyBeginner,
		},
		{
			CourseCode:  "ENG101",
			Title:       "English Composition",
			Description: "Development of writing skills through practice in various forms of composition.",
			Credits:     3,
			Department:  "English",
			Instructor:  "Prof. Wilson",
			Schedule: appModels.Schedule{
				Days:      []appModels.Weekday{appModels.Monday, appModels.Wednesday},
				StartTime: "13:00", EndTime: "14:30", Room: "ENG-101",
			},
			Semester: appModels.SemesterFall, Year: 2024, MaxCapacity: 25,
			Category: appModels.CategoryGeneralEducation, Level: appModels.LevelUndergraduate,
		},
		{
			CourseCode:  "PHYS101",
			Title:       "General Physics I",
			Description: "Mechanics, thermodynamics, and wave motion with laboratory component.",
			Credits:     4,
			Department:  "Physics",
			Instructor:  "Dr. Brown",
			Schedule: appModels.Schedule{
				Days:      []appModels.Weekday{appModels.Tuesday, appModels.Thursday},
				StartTime: "14:00", EndTime: "15:30", Room: "PHYS-101",
			},
			Semester: appModels.SemesterFall, Year: 2024, MaxCapacity: 35,
			Prerequisites: []string{"MATH101"},
			Category:      appModels.CategoryCore, Level: appModels.LevelUndergraduate, Difficulty: appModels.DifficultyIntermediate,
		},
	}
}

// CreateDefaultData creates the default admin and the sample catalog if they don't exist.
// It keeps going past individual failures and returns them joined.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, opts Options, lgr zerolog.Logger) error {
	var finalErr error

	lgr.Info().Msg("Checking/Creating default data (admin user, sample courses)...")

	if opts.AdminEmail != "" {
		exists, err := repos.Users.EmailExists(ctx, opts.AdminEmail)
		if err != nil {
			lgr.Error().Err(err).Msg("Error checking if admin user exists")
			finalErr = errors.Join(finalErr, err)
		} else if !exists {
			lgr.Info().Str("email", opts.AdminEmail).Msg("Creating default admin user...")
			hashed, err := auth.HashPassword(opts.AdminPassword)
			if err != nil {
				lgr.Error().Err(err).Msg("Error hashing admin password")
				finalErr = errors.Join(finalErr, err)
			} else {
				admin := &appModels.User{
					Name:     "System Administrator",
					Email:    opts.AdminEmail,
					Password: hashed,
					Role:     appModels.RoleAdmin,
				}
				if err := repos.Users.Create(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
					lgr.Error().Err(err).Msg("Error creating admin user")
					finalErr = errors.Join(finalErr, err)
				}
			}
		}
	}

	if opts.SampleCourses {
		created := 0
		for _, c := range SampleCourses() {
			err := repos.Courses.Create(ctx, c)
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperrors.ErrCourseAlreadyExists):
			default:
				lgr.Error().Err(err).Str("courseCode", c.CourseCode).Msg("Error creating sample course")
				finalErr = errors.Join(finalErr, err)
			}
		}
		lgr.Info().Int("created", created).Msg("Sample courses checked")
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data check/creation completed.")
	}
	return finalErr
}
