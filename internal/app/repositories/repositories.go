package repositories

import (
	"github.com/sparks-2204/course-recommendation-system/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	Users   IUserRepository
	Courses ICourseRepository
	Ledger  ILedgerRepository
}

// NewRepositories initializes the PostgreSQL-backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(database),
		Courses: NewCourseRepository(database),
		Ledger:  NewLedgerRepository(database),
	}
}
