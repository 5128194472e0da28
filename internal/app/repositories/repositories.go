package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	ApplicationRepository *ApplicationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(db),
		ApplicationRepository: NewApplicationRepository(db),
	}
}

var (
	_ ApplicationStore       = (*ApplicationRepository)(nil)
	_ ApplicationStatsReader = (*ApplicationRepository)(nil)
	_ UserStore              = (*UserRepository)(nil)
)
